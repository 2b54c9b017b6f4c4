package runtime

import (
	"context"
	"strings"

	"github.com/aretw0/citychat/pkg/domain"
	"github.com/aretw0/citychat/pkg/gateway"
	"github.com/aretw0/citychat/pkg/sensor"
)

// MsgTableLink accompanies the link to a published data table.
const MsgTableLink = "Data table for all the identifiers can be found here"

// report fetches the latest readings, filters them by c and appends the result.
// With an accumulator the matching rows are reduced to one; otherwise the first
// row is shown and, when there are more, the full table is published.
func (e *Engine) report(ctx context.Context, s *domain.Session, c gateway.Criteria, acc domain.Accumulator) {
	e.pending(ctx, s)
	defer e.settle(s)

	start := e.now()
	all, err := e.gateway.FetchLatestReadings(ctx)
	e.emitFetch(ctx, s.ID, "latest", start, err)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to fetch readings", "session_id", s.ID, "err", err)
		e.say(s, bot(gateway.ApologyUnreachable))
		return
	}

	res := gateway.FilterReadings(all, c)
	if res.Notice != "" {
		e.say(s, bot(res.Notice))
	}
	if len(res.Readings) == 0 {
		e.say(s, bot(c.NoDataMessage()))
		return
	}

	if acc != domain.AccumulatorNone {
		agg := sensor.Aggregate(res.Readings, acc)
		e.say(s, bot("Aggregated data with \nAccumulator: "+string(acc)+"\n"+agg.String()))
		return
	}

	e.say(s, bot(describe(res.Readings[0])))
	if len(res.Readings) < 2 {
		return
	}

	start = e.now()
	link, err := e.gateway.PublishTable(ctx, sensor.MarkdownTable(c.Header(), res.Readings))
	e.emitFetch(ctx, s.ID, "publish", start, err)
	if err != nil {
		e.logger.WarnContext(ctx, "Failed to publish data table", "session_id", s.ID, "rows", len(res.Readings), "err", err)
		return
	}
	e.say(s, domain.Message{Text: MsgTableLink, Sender: domain.SenderBot, Link: link})
}

// ask forwards a question to the natural-language endpoint and appends the answer.
// Temporal questions about a sensor parameter are marked as chartable.
func (e *Engine) ask(ctx context.Context, s *domain.Session, question string) {
	e.pending(ctx, s)
	defer e.settle(s)

	start := e.now()
	answer := e.gateway.AskNaturalLanguage(ctx, question)
	e.emitFetch(ctx, s.ID, "query", start, nil)

	msg := bot(answer)
	if sensor.ShouldVisualize(question) {
		msg.Visualize = question
	}
	e.say(s, msg)
}

// describe renders one reading as a node header followed by field lines.
func describe(r sensor.Reading) string {
	var b strings.Builder
	b.WriteString("Data for the identifiers: \n")
	b.WriteString(r.NodeID())
	b.WriteString(":\n")
	for _, f := range r.Fields {
		if f.Key == "node_id" {
			continue
		}
		b.WriteString(f.Key)
		b.WriteString(": ")
		b.WriteString(sensor.FormatValue(f.Value))
		b.WriteString("\n")
	}
	return b.String()
}

func bot(text string) domain.Message {
	return domain.Message{Text: text, Sender: domain.SenderBot}
}
