package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/ongea/core/bot"
)

func CreateBot(
	t *testing.T,
	repo bot.Repository,
	ownerID, name string,
	phase bot.Phase,
	graph *bot.GraphConfig,
	rules []bot.Rule,
	instructions string,
	createdAt ...time.Time,
) bot.Bot {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	b := bot.Bot{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Name:         name,
		Phase:        phase,
		Graph:        graph,
		Rules:        rules,
		Instructions: instructions,
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	}
	b, err := repo.CreateBot(b)
	if err != nil {
		t.Fatalf("createBot() failed: %v", err)
	}
	return b
}

// GreetingGraph is a minimal working decision-tree: start greets, then a
// yes/no question leads to an end node.
func GreetingGraph() *bot.GraphConfig {
	return &bot.GraphConfig{
		Nodes: []bot.Node{
			{ID: "start", Kind: bot.KindStart, Message: "Hi there!"},
			{ID: "ask", Kind: bot.KindQuestion, Message: "Do you like robots?", Fallback: "It's a yes or no question :)"},
			{ID: "yay", Kind: bot.KindResponse, Message: "Me too!"},
			{ID: "bye", Kind: bot.KindEnd, Message: "Goodbye!"},
		},
		Edges: []bot.Edge{
			{ID: "e1", Source: "start", Target: "ask", Condition: ""},
			{ID: "e2", Source: "ask", Target: "yay", Condition: "yes,yeah"},
			{ID: "e3", Source: "ask", Target: "bye", Condition: "no,nope"},
			{ID: "e4", Source: "yay", Target: "bye", Condition: "default"},
		},
	}
}

// FAQRules is a small keyword-rule set with a fallback.
func FAQRules() []bot.Rule {
	return []bot.Rule{
		{ID: "r1", Keywords: []string{"hours", "open"}, Response: "We are open 9-5.", MatchMode: bot.ModeAny, Priority: 1},
		{ID: "r2", Keywords: []string{"bye"}, Response: "See you!", MatchMode: bot.ModeAny},
		{ID: "r3", Response: "Sorry, I can only answer FAQ questions.", IsFallback: true},
	}
}
