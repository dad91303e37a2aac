package bot

import (
	"time"

	"github.com/trezcool/ongea/core"
)

// Phases
const (
	PhaseDecisionTree Phase = "decision_tree"
	PhaseKeywords     Phase = "keywords"
	PhaseAssistant    Phase = "assistant"
)

// Node kinds
const (
	KindStart    NodeKind = "start"
	KindResponse NodeKind = "response"
	KindQuestion NodeKind = "question"
	KindEnd      NodeKind = "end"
)

// Match modes
const (
	ModeAny   MatchMode = "any"
	ModeAll   MatchMode = "all"
	ModeExact MatchMode = "exact"
)

var (
	Phases     = []Phase{PhaseDecisionTree, PhaseKeywords, PhaseAssistant}
	NodeKinds  = []NodeKind{KindStart, KindResponse, KindQuestion, KindEnd}
	MatchModes = []MatchMode{ModeAny, ModeAll, ModeExact}
)

type (
	// Phase selects which matching strategy handles a message.
	Phase string

	NodeKind  string
	MatchMode string

	// Node is a single conversation step in a decision-tree bot.
	// Nodes are authored in an external editor and are immutable during evaluation.
	Node struct {
		ID       string   `json:"id"`
		Kind     NodeKind `json:"kind" validate:"omitempty,nodekind"`
		Message  string   `json:"message"`
		Fallback string   `json:"fallback,omitempty"`
	}

	// Edge is a directed, conditional transition between two Nodes.
	// Condition is either a comma-separated keyword list or a
	// default/catch-all marker ("", "default", "else", "*").
	Edge struct {
		ID        string `json:"id"`
		Source    string `json:"source"`
		Target    string `json:"target"`
		Condition string `json:"condition"`
	}

	// Rule is one entry of a keyword-list bot.
	Rule struct {
		ID         string    `json:"id"`
		Keywords   []string  `json:"keywords"`
		Response   string    `json:"response" validate:"required"`
		MatchMode  MatchMode `json:"match_mode" validate:"omitempty,matchmode"`
		Priority   int       `json:"priority"`
		IsFallback bool      `json:"is_fallback"`
	}

	// ConversationState is the minimal data a caller must persist between
	// turns of a decision-tree conversation. CurrentNodeID == "" means
	// "not yet started". History is append-only and never used for routing.
	ConversationState struct {
		CurrentNodeID string   `json:"current_node_id"`
		History       []string `json:"history"`
		HasGreeted    bool     `json:"has_greeted"`
	}

	// Reply is the common result shape every strategy is normalized to.
	Reply struct {
		Response    string            `json:"response"`
		State       ConversationState `json:"state"`
		IsEnd       bool              `json:"is_end,omitempty"`
		MatchedRule *Rule             `json:"matched_rule,omitempty"`
		Confidence  float64           `json:"confidence,omitempty"`
	}
)

// NewConversationState returns the state of a conversation that has not started yet.
func NewConversationState() ConversationState {
	return ConversationState{History: []string{}}
}

// Config is the engine configuration for one Phase. It is a sealed union:
// the Router switches over the concrete types exhaustively instead of
// probing duck-typed fields.
type Config interface {
	ConfigPhase() Phase
}

type (
	GraphConfig struct {
		Nodes []Node `json:"nodes" validate:"dive"`
		Edges []Edge `json:"edges" validate:"dive"`
	}

	RuleConfig struct {
		Rules []Rule `json:"rules" validate:"dive"`
	}

	AssistantConfig struct {
		Instructions  string             `json:"instructions,omitempty"`
		PriorMessages []core.ChatMessage `json:"prior_messages,omitempty"`
	}
)

func (*GraphConfig) ConfigPhase() Phase     { return PhaseDecisionTree }
func (*RuleConfig) ConfigPhase() Phase      { return PhaseKeywords }
func (*AssistantConfig) ConfigPhase() Phase { return PhaseAssistant }

// Bot is a student-authored chatbot project. Only the configuration is
// persisted; conversation transcripts and state stay with the caller.
type Bot struct {
	ID           string       `json:"id"`
	OwnerID      string       `json:"owner_id"`
	Name         string       `json:"name"`
	Phase        Phase        `json:"phase"`
	Graph        *GraphConfig `json:"graph,omitempty"`
	Rules        []Rule       `json:"rules,omitempty"`
	Instructions string       `json:"instructions,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// EngineConfig resolves the stored configuration matching the bot's Phase.
// It returns nil when the bot has no usable configuration for its phase;
// the Router turns that into a "not configured" reply.
func (b Bot) EngineConfig() Config {
	switch b.Phase {
	case PhaseDecisionTree:
		if b.Graph == nil {
			return nil
		}
		return b.Graph
	case PhaseKeywords:
		return &RuleConfig{Rules: b.Rules}
	case PhaseAssistant:
		return &AssistantConfig{Instructions: b.Instructions}
	}
	return nil
}

// NewBot contains information needed to create a new Bot.
type NewBot struct {
	OwnerID      string       `json:"owner_id" validate:"required"`
	Name         string       `json:"name" validate:"required"`
	Phase        Phase        `json:"phase" validate:"required,phase"`
	Graph        *GraphConfig `json:"graph,omitempty"`
	Rules        []Rule       `json:"rules,omitempty" validate:"omitempty,dive"`
	Instructions string       `json:"instructions,omitempty"`
}

// UpdateBot defines what information may be provided to modify an existing Bot.
// Zero-valued fields are left untouched.
type UpdateBot struct {
	Name         string       `json:"name,omitempty"`
	Phase        Phase        `json:"phase,omitempty" validate:"omitempty,phase"`
	Graph        *GraphConfig `json:"graph,omitempty"`
	Rules        []Rule       `json:"rules,omitempty" validate:"omitempty,dive"`
	Instructions string       `json:"instructions,omitempty"`
}

// QueryFilter applies an AND operation on its set fields.
// Search does a case-insensitive match on Bot.Name.
type QueryFilter struct {
	OwnerID     string    `json:"owner_id" query:"owner_id"`
	Phase       Phase     `json:"phase" query:"phase"`
	Search      string    `json:"search" query:"search"`
	CreatedFrom time.Time `json:"created_from" query:"created_from"`
	CreatedTo   time.Time `json:"created_to" query:"created_to"`
}

func (f *QueryFilter) Clean() {
	f.OwnerID = core.CleanString(f.OwnerID)
	f.Phase = Phase(core.CleanString(string(f.Phase), true /* lower */))
	f.Search = core.CleanString(f.Search, true /* lower */)
}
