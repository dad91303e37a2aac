package bot

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/ongea/core"
)

var (
	// errors
	ErrNotFound = errors.New("bot not found")
)

type (
	Repository interface {
		CreateBot(b Bot) (Bot, error)
		QueryAllBots() ([]Bot, error)
		GetBotByID(id string) (Bot, error)
		// FilterBots applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Bot.Name.
		FilterBots(filter QueryFilter, ordering ...core.DBOrdering) ([]Bot, error)
		UpdateBot(b Bot) (Bot, error)
		DeleteBotsByID(ids ...string) error
	}

	Service interface {
		Create(nb NewBot) (Bot, error)
		QueryAll() ([]Bot, error)
		GetByID(id string) (Bot, error)
		Filter(filter QueryFilter, ordering ...core.DBOrdering) ([]Bot, error)
		Update(id string, ub UpdateBot) (Bot, error)
		Delete(ids ...string) error
		// Chat evaluates one user utterance against the bot's configuration.
		// The returned Reply always carries a non-empty response; the caller
		// must persist Reply.State verbatim for conversation continuity.
		Chat(ctx context.Context, id string, req ChatRequest) (Reply, error)
	}

	service struct {
		repo   Repository
		engine *Engine
		logger core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, engine *Engine, logger core.Logger) Service {
	return &service{
		repo:   repo,
		engine: engine,
		logger: logger,
	}
}

// ChatRequest is one turn of a conversation as submitted by the caller.
// State must be the Reply.State of the previous turn, or absent on the first.
type ChatRequest struct {
	Utterance     string             `json:"utterance" validate:"required"`
	State         *ConversationState `json:"state,omitempty"`
	PriorMessages []core.ChatMessage `json:"prior_messages,omitempty"`
}

func (svc *service) Create(nb NewBot) (Bot, error) {
	now := time.Now().UTC()
	b := Bot{
		ID:           uuid.NewString(),
		OwnerID:      nb.OwnerID,
		Name:         nb.Name,
		Phase:        nb.Phase,
		Graph:        nb.Graph,
		Rules:        nb.Rules,
		Instructions: nb.Instructions,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	ensureIDs(&b)
	return svc.repo.CreateBot(b)
}

func (svc *service) QueryAll() ([]Bot, error) {
	return svc.repo.QueryAllBots()
}

func (svc *service) GetByID(id string) (Bot, error) {
	return svc.repo.GetBotByID(core.CleanString(id))
}

func (svc *service) Filter(filter QueryFilter, ordering ...core.DBOrdering) ([]Bot, error) {
	return svc.repo.FilterBots(filter, ordering...)
}

func (svc *service) Update(id string, ub UpdateBot) (Bot, error) {
	b := Bot{
		ID:           id,
		Name:         ub.Name,
		Phase:        ub.Phase,
		Graph:        ub.Graph,
		Rules:        ub.Rules,
		Instructions: ub.Instructions,
		UpdatedAt:    time.Now().UTC(),
	}
	ensureIDs(&b)
	return svc.repo.UpdateBot(b)
}

func (svc *service) Delete(ids ...string) error {
	return svc.repo.DeleteBotsByID(ids...)
}

func (svc *service) Chat(ctx context.Context, id string, req ChatRequest) (Reply, error) {
	b, err := svc.repo.GetBotByID(core.CleanString(id))
	if err != nil {
		return Reply{}, err
	}

	state := NewConversationState()
	if req.State != nil {
		state = *req.State
	}

	cfg := b.EngineConfig()
	if ac, ok := cfg.(*AssistantConfig); ok {
		ac.PriorMessages = req.PriorMessages
	}

	reply := svc.engine.Route(ctx, b.Phase, cfg, req.Utterance, state)
	svc.logger.Debug("bot chat turn", map[string]interface{}{
		"bot":        b.ID,
		"owner":      b.OwnerID,
		"phase":      b.Phase,
		"is_end":     reply.IsEnd,
		"confidence": reply.Confidence,
	})
	return reply, nil
}

// ensureIDs backfills missing node/edge/rule identities so configurations
// authored by hand (or trimmed by an editor) stay addressable.
func ensureIDs(b *Bot) {
	if b.Graph != nil {
		for i := range b.Graph.Nodes {
			if b.Graph.Nodes[i].ID == "" {
				b.Graph.Nodes[i].ID = uuid.NewString()
			}
		}
		for i := range b.Graph.Edges {
			if b.Graph.Edges[i].ID == "" {
				b.Graph.Edges[i].ID = uuid.NewString()
			}
		}
	}
	for i := range b.Rules {
		if b.Rules[i].ID == "" {
			b.Rules[i].ID = uuid.NewString()
		}
	}
}
