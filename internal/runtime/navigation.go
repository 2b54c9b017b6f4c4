package runtime

import (
	"context"
	"slices"
	"time"

	"github.com/aretw0/citychat/pkg/domain"
	"github.com/aretw0/citychat/pkg/gateway"
	"github.com/aretw0/citychat/pkg/sensor"
)

// Chat texts produced by the engine itself.
const (
	MsgInvalidOption = "Error: Invalid option selected"
	MsgInvalidNext   = "Error: Invalid next node"
)

// dispatch routes input according to the session mode and the active node's slot.
func (e *Engine) dispatch(ctx context.Context, s *domain.Session, input string) error {
	node, ok := e.graph.Node(s.CurrentNode)
	if !ok {
		return &NodeNotFoundError{Node: s.CurrentNode}
	}

	if s.Ended {
		return e.resume(ctx, s, node)
	}
	if s.AwaitingFreeText() {
		return e.handleFreeText(ctx, s, node, input)
	}
	return e.handleSelection(ctx, s, node, input)
}

// resume restarts an ended conversation at the terminal node's restart point.
// The submitted text only wakes the conversation up.
func (e *Engine) resume(ctx context.Context, s *domain.Session, terminal domain.Node) error {
	target := terminal.Next
	if target == "" {
		target = e.graph.Root()
	}
	next, ok := e.graph.Node(target)
	if !ok {
		return &NodeNotFoundError{Node: target}
	}

	s.Ended = false
	s.ClearIdentifiers()
	e.enter(ctx, s, terminal, next, false)
	return nil
}

func (e *Engine) handleSelection(ctx context.Context, s *domain.Session, node domain.Node, input string) error {
	opt, ok := node.Option(input)
	if !ok {
		e.logger.DebugContext(ctx, "Invalid option", "session_id", s.ID, "node", node.Name, "input", input)
		e.reject(s, node, MsgInvalidOption)
		return nil
	}

	if opt.Identifier != "" {
		s.Identifiers.Set(node.Expects, opt.Identifier)
	}
	if opt.Accumulator != domain.AccumulatorNone {
		s.Accumulator = opt.Accumulator
	}
	if opt.Terminal {
		e.report(ctx, s, gateway.Criteria{
			BuildingID: s.BuildingID,
			VerticalID: s.VerticalID,
			FloorID:    s.FloorID,
		}, s.Accumulator)
		s.ClearIdentifiers()
	}

	// graph.New rejects dangling targets, so this only guards graphs whose
	// validation is bypassed.
	target, ok := e.graph.Node(opt.Next)
	if !ok {
		e.logger.WarnContext(ctx, "Option points to an unknown node", "node", node.Name, "option", opt.Label, "next", opt.Next)
		e.reject(s, node, MsgInvalidNext)
		return nil
	}

	e.enter(ctx, s, node, target, opt.RequiresFreeText)
	return nil
}

func (e *Engine) handleFreeText(ctx context.Context, s *domain.Session, node domain.Node, input string) error {
	switch node.Expects {
	case domain.SlotNodeID:
		e.report(ctx, s, gateway.Criteria{NodeID: input}, domain.AccumulatorNone)
		return e.follow(ctx, s, node, node.Next)

	case domain.SlotLocation:
		refined := s.LastQuestion + " " + input + " temperature"
		e.ask(ctx, s, refined)
		return e.follow(ctx, s, node, node.Next)

	default:
		if node.Expects != domain.SlotQuestion {
			e.logger.WarnContext(ctx, "Free text on a node without a free-text slot; treating it as a question",
				"node", node.Name, "expects", node.Expects)
		}
		s.LastQuestion = input
		e.ask(ctx, s, input)

		if !sensor.ShouldVisualize(input) && sensor.IsClimateQuery(input) && sensor.ExtractLocation(input) != "" {
			if refine, ok := e.locationNode(); ok {
				e.enter(ctx, s, node, refine, false)
				return nil
			}
		}
		return e.follow(ctx, s, node, node.Next)
	}
}

// follow moves to the follow-up node of a free-text node, defaulting to the root.
func (e *Engine) follow(ctx context.Context, s *domain.Session, from domain.Node, name string) error {
	if name == "" {
		name = e.graph.Root()
	}
	target, ok := e.graph.Node(name)
	if !ok {
		return &NodeNotFoundError{Node: name}
	}
	e.enter(ctx, s, from, target, false)
	return nil
}

// locationNode returns the first node collecting an indoor/outdoor refinement.
func (e *Engine) locationNode() (domain.Node, bool) {
	for _, n := range e.graph.Nodes() {
		if n.Expects == domain.SlotLocation {
			return n, true
		}
	}
	return domain.Node{}, false
}

// reject appends an error and repeats the current prompt. The session does not move.
func (e *Engine) reject(s *domain.Session, node domain.Node, text string) {
	e.say(s, domain.Message{Text: text, Sender: domain.SenderBot})
	e.say(s, domain.Message{Text: node.Message, Sender: domain.SenderBot})
}

// enter transitions from one node to another and shows the new prompt.
func (e *Engine) enter(ctx context.Context, s *domain.Session, from, to domain.Node, freeText bool) {
	e.emitNode(ctx, e.hooks.OnNodeLeave, domain.EventNodeLeave, s.ID, from.Name)
	s.CurrentNode = to.Name
	e.show(ctx, s, to, freeText)
}

// show makes node the active prompt of s.
func (e *Engine) show(ctx context.Context, s *domain.Session, node domain.Node, freeText bool) {
	s.Mode = domain.ModeSelecting
	if freeText || node.InputExpected {
		s.Mode = domain.ModeFreeText
	}
	s.Suggestions = slices.Clone(node.RecommendedQuestions)
	s.Ended = node.Terminal
	e.say(s, domain.Message{Text: node.Message, Sender: domain.SenderBot})
	e.emitNode(ctx, e.hooks.OnNodeEnter, domain.EventNodeEnter, s.ID, node.Name)
}

// say appends a bot message, taking the place of a pending placeholder if there is one.
func (e *Engine) say(s *domain.Session, msg domain.Message) {
	if n := len(s.Messages); n > 0 && s.Messages[n-1].Pending {
		s.Messages[n-1] = msg
		return
	}
	s.Messages = append(s.Messages, msg)
}

// pending appends the placeholder for a backend call and publishes the intermediate state.
func (e *Engine) pending(ctx context.Context, s *domain.Session) {
	if n := len(s.Messages); n == 0 || !s.Messages[n-1].Pending {
		s.Messages = append(s.Messages, domain.Message{Text: Processing, Sender: domain.SenderBot, Pending: true})
	}
	if e.hooks.OnProgress != nil {
		e.hooks.OnProgress(ctx, &domain.ProgressEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventProgress, SessionID: s.ID},
			Session:   s.Clone(),
		})
	}
}

// settle drops a placeholder nothing replaced.
func (e *Engine) settle(s *domain.Session) {
	if n := len(s.Messages); n > 0 && s.Messages[n-1].Pending {
		s.Messages = s.Messages[:n-1]
	}
}

func (e *Engine) emitNode(ctx context.Context, hook func(context.Context, *domain.NodeEvent), typ domain.EventType, sessionID, node string) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: typ, SessionID: sessionID},
		Node:      node,
	})
}

func (e *Engine) emitFetch(ctx context.Context, sessionID, op string, start time.Time, err error) {
	if e.hooks.OnFetch == nil {
		return
	}
	e.hooks.OnFetch(ctx, &domain.FetchEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventFetch, SessionID: sessionID},
		Operation: op,
		Duration:  e.now().Sub(start),
		IsError:   err != nil,
	})
}
