package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/citychat/pkg/domain"
	"github.com/aretw0/citychat/pkg/ports"
)

// Mask replaces redacted text.
const Mask = "***"

// DefaultPIIPatterns match e-mail addresses and phone numbers.
var DefaultPIIPatterns = []string{
	`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`,
	`\+?\d[\d -]{8,}\d`,
}

type piiMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks text matching the patterns
// in what users typed (their messages and the last question) before it is stored.
// Bot messages are left alone.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, session *domain.Session) error {
	// Clone so the in-memory session used by the engine keeps the real text.
	cloned := session.Clone()
	cloned.LastQuestion = m.mask(cloned.LastQuestion)
	for i := range cloned.Messages {
		msg := &cloned.Messages[i]
		if msg.Sender == domain.SenderUser {
			msg.Text = m.mask(msg.Text)
		}
		// Chartable answers keep the question they were asked with.
		msg.Visualize = m.mask(msg.Visualize)
		if msg.Checkpoint != nil {
			msg.Checkpoint.LastQuestion = m.mask(msg.Checkpoint.LastQuestion)
		}
	}
	return m.next.Save(ctx, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, Mask)
	}
	return s
}
