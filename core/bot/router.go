package bot

import (
	"context"

	"github.com/trezcool/ongea/core"
)

// Engine dispatches an incoming message to the strategy declared by the
// bot's phase and normalizes every strategy to the common Reply shape.
//
// The local strategies (decision tree, keywords) are pure and synchronous;
// only the assistant path performs I/O, through the injected collaborator.
// Route never returns an error: every failure mode is adapted into a reply
// so the bot always "says something" instead of crashing. The engine keeps
// no per-conversation state; callers must serialize calls sharing one state.
type Engine struct {
	assistantSvc core.AssistantService
}

func NewEngine(assistantSvc core.AssistantService) *Engine {
	return &Engine{assistantSvc: assistantSvc}
}

// Route evaluates one user utterance against the configuration for the given
// phase and returns the bot's reply plus the updated conversation state.
func (e *Engine) Route(ctx context.Context, phase Phase, cfg Config, utterance string, state ConversationState) Reply {
	switch phase {
	case PhaseDecisionTree:
		gc, ok := cfg.(*GraphConfig)
		if !ok || gc == nil {
			return Reply{Response: respNotConfigured, State: state}
		}
		return NewWalker(gc).Step(utterance, state)

	case PhaseKeywords:
		rc, ok := cfg.(*RuleConfig)
		if !ok || rc == nil {
			return Reply{Response: respNotConfigured, State: state}
		}
		// stateless strategy: the state is passed through unchanged
		res := Evaluate(utterance, rc.Rules)
		return Reply{Response: res.Response, State: state, MatchedRule: res.MatchedRule, Confidence: res.Confidence}

	case PhaseAssistant:
		return e.routeAssistant(ctx, cfg, utterance, state)

	default:
		return Reply{Response: respUnknownPhase, State: state}
	}
}

func (e *Engine) routeAssistant(ctx context.Context, cfg Config, utterance string, state ConversationState) Reply {
	if e.assistantSvc == nil {
		return Reply{Response: "Error: assistant unavailable", State: state}
	}

	req := core.AssistantRequest{Utterance: utterance}
	if ac, ok := cfg.(*AssistantConfig); ok && ac != nil {
		req.Instructions = ac.Instructions
		req.PriorMessages = ac.PriorMessages
	}

	// Any collaborator failure is terminal for this single call (no internal
	// retry) and is surfaced as a labeled error reply, never propagated.
	resp, err := e.assistantSvc.Reply(ctx, req)
	if err != nil {
		return Reply{Response: "Error: " + err.Error(), State: state}
	}
	text := core.CleanString(resp.Text)
	if text == "" {
		text = respFallback
	}
	return Reply{Response: text, State: state}
}
