package bot

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/ongea/core"
)

type assistantSvcStub struct {
	resp core.AssistantResponse
	err  error

	lastReq core.AssistantRequest
}

var _ core.AssistantService = (*assistantSvcStub)(nil)

func (svc *assistantSvcStub) Reply(_ context.Context, req core.AssistantRequest) (core.AssistantResponse, error) {
	svc.lastReq = req
	return svc.resp, svc.err
}

func TestRouteDecisionTree(t *testing.T) {
	eng := NewEngine(nil)

	reply := eng.Route(context.Background(), PhaseDecisionTree, testGraph(), "hello", NewConversationState())
	if reply.Response != "Do you like robots?" {
		t.Errorf("Route() response = %q, want the walker's first message", reply.Response)
	}

	// nil / mismatched config is a recoverable configuration error
	reply = eng.Route(context.Background(), PhaseDecisionTree, nil, "hello", NewConversationState())
	if reply.Response != respNotConfigured {
		t.Errorf("Route() response = %q, want %q", reply.Response, respNotConfigured)
	}
	reply = eng.Route(context.Background(), PhaseDecisionTree, &RuleConfig{}, "hello", NewConversationState())
	if reply.Response != respNotConfigured {
		t.Errorf("Route() response = %q, want %q on a phase/config mismatch", reply.Response, respNotConfigured)
	}
}

func TestRouteKeywordsStateless(t *testing.T) {
	eng := NewEngine(nil)
	cfg := &RuleConfig{Rules: []Rule{
		{ID: "r1", Keywords: []string{"bye"}, Response: "See ya!", Priority: 1},
	}}
	state := ConversationState{CurrentNodeID: "somewhere", History: []string{"a", "b"}, HasGreeted: true}

	reply := eng.Route(context.Background(), PhaseKeywords, cfg, "bye", state)
	if reply.Response != "See ya!" {
		t.Errorf("Route() response = %q, want the rule's response", reply.Response)
	}
	if reply.State.CurrentNodeID != state.CurrentNodeID || len(reply.State.History) != len(state.History) {
		t.Error("Route() must pass the state through unchanged for the keywords phase")
	}
}

func TestRouteAssistant(t *testing.T) {
	stub := &assistantSvcStub{resp: core.AssistantResponse{Text: "  Generated reply.  "}}
	eng := NewEngine(stub)
	cfg := &AssistantConfig{
		Instructions:  "You are a friendly tutor.",
		PriorMessages: []core.ChatMessage{{Role: "user", Text: "hi"}},
	}

	reply := eng.Route(context.Background(), PhaseAssistant, cfg, "what is a chatbot?", NewConversationState())
	if reply.Response != "Generated reply." {
		t.Errorf("Route() response = %q, want the assistant text, trimmed", reply.Response)
	}
	if stub.lastReq.Utterance != "what is a chatbot?" {
		t.Errorf("Route() forwarded utterance = %q", stub.lastReq.Utterance)
	}
	if stub.lastReq.Instructions != cfg.Instructions || len(stub.lastReq.PriorMessages) != 1 {
		t.Error("Route() must forward instructions and prior messages to the assistant")
	}
}

func TestRouteAssistantFailure(t *testing.T) {
	stub := &assistantSvcStub{err: errors.New("upstream timed out")}
	eng := NewEngine(stub)
	state := ConversationState{CurrentNodeID: "keep-me", History: []string{}, HasGreeted: true}

	reply := eng.Route(context.Background(), PhaseAssistant, &AssistantConfig{}, "hello", state)
	if !strings.HasPrefix(reply.Response, "Error: ") {
		t.Errorf("Route() response = %q, want a labeled error reply", reply.Response)
	}
	if reply.State.CurrentNodeID != "keep-me" {
		t.Error("Route() must leave the state unchanged on a collaborator failure")
	}
}

func TestRouteAssistantEmptyText(t *testing.T) {
	stub := &assistantSvcStub{resp: core.AssistantResponse{Text: "   "}}
	eng := NewEngine(stub)

	reply := eng.Route(context.Background(), PhaseAssistant, &AssistantConfig{}, "hello", NewConversationState())
	if reply.Response == "" {
		t.Error("Route() must never return an empty response")
	}
}

func TestRouteUnknownPhase(t *testing.T) {
	eng := NewEngine(nil)
	state := ConversationState{CurrentNodeID: "x", History: []string{}, HasGreeted: true}

	reply := eng.Route(context.Background(), Phase("telepathy"), nil, "hello", state)
	if reply.Response != respUnknownPhase {
		t.Errorf("Route() response = %q, want %q", reply.Response, respUnknownPhase)
	}
	if reply.State.CurrentNodeID != "x" {
		t.Error("Route() must pass the state through unchanged for an unknown phase")
	}
}
