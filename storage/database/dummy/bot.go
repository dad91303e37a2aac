package dummydb

import (
	"sort"
	"strings"

	"github.com/trezcool/ongea/core"
	"github.com/trezcool/ongea/core/bot"
)

type botRepository struct {
	db *botTable
}

var _ bot.Repository = (*botRepository)(nil) // interface compliance check

func NewBotRepository(db *DB) bot.Repository {
	return &botRepository{db: db.bot}
}

func (repo *botRepository) query() []bot.Bot {
	bots := make([]bot.Bot, 0, len(repo.db.table))
	for _, b := range repo.db.table {
		bots = append(bots, *b)
	}
	return bots
}

func (repo *botRepository) CreateBot(b bot.Bot) (bot.Bot, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[b.ID] = &b
	return b, nil
}

func (repo *botRepository) QueryAllBots() ([]bot.Bot, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *botRepository) GetBotByID(id string) (bot.Bot, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if b, ok := repo.db.table[id]; ok {
		return *b, nil
	}
	return bot.Bot{}, bot.ErrNotFound
}

func (repo *botRepository) FilterBots(filter bot.QueryFilter, ordering ...core.DBOrdering) ([]bot.Bot, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	bots := repo.query()

	if filter.OwnerID != "" {
		var filtered []bot.Bot
		for _, b := range bots {
			if b.OwnerID == filter.OwnerID {
				filtered = append(filtered, b)
			}
		}
		bots = filtered
	}
	if bots != nil && filter.Phase != "" {
		var filtered []bot.Bot
		for _, b := range bots {
			if b.Phase == filter.Phase {
				filtered = append(filtered, b)
			}
		}
		bots = filtered
	}
	// bots with search keyword matching Name
	if bots != nil && filter.Search != "" {
		var filtered []bot.Bot
		for _, b := range bots {
			if strings.Contains(strings.ToLower(b.Name), strings.ToLower(filter.Search)) {
				filtered = append(filtered, b)
			}
		}
		bots = filtered
	}
	if bots != nil && !filter.CreatedFrom.IsZero() {
		var filtered []bot.Bot
		timeUTC := filter.CreatedFrom.UTC()
		for _, b := range bots {
			if b.CreatedAt.Equal(timeUTC) || b.CreatedAt.After(timeUTC) {
				filtered = append(filtered, b)
			}
		}
		bots = filtered
	}
	if bots != nil && !filter.CreatedTo.IsZero() {
		var filtered []bot.Bot
		timeUTC := filter.CreatedTo.UTC()
		for _, b := range bots {
			if b.CreatedAt.Before(timeUTC) || b.CreatedAt.Equal(timeUTC) {
				filtered = append(filtered, b)
			}
		}
		bots = filtered
	}

	sortBots(bots, ordering)
	return bots, nil
}

func (repo *botRepository) UpdateBot(b bot.Bot) (bot.Bot, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// only save set fields
	origBot, ok := repo.db.table[b.ID]
	if !ok {
		return bot.Bot{}, bot.ErrNotFound
	}
	if b.Name != "" {
		origBot.Name = b.Name
	}
	if b.Phase != "" {
		origBot.Phase = b.Phase
	}
	if b.Graph != nil {
		origBot.Graph = b.Graph
	}
	if b.Rules != nil {
		origBot.Rules = b.Rules
	}
	if b.Instructions != "" {
		origBot.Instructions = b.Instructions
	}
	origBot.UpdatedAt = b.UpdatedAt

	repo.db.table[b.ID] = origBot
	return *origBot, nil
}

func sortBots(bots []bot.Bot, ordering []core.DBOrdering) {
	// apply orderings in reverse so the first one wins
	for i := len(ordering) - 1; i >= 0; i-- {
		ord := ordering[i]
		var less func(a, b bot.Bot) bool
		switch ord.Field {
		case "name":
			less = func(a, b bot.Bot) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
		case "phase":
			less = func(a, b bot.Bot) bool { return a.Phase < b.Phase }
		case "created_at":
			less = func(a, b bot.Bot) bool { return a.CreatedAt.Before(b.CreatedAt) }
		case "updated_at":
			less = func(a, b bot.Bot) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
		default:
			continue
		}
		if ord.Ascending {
			sort.SliceStable(bots, func(x, y int) bool { return less(bots[x], bots[y]) })
		} else {
			sort.SliceStable(bots, func(x, y int) bool { return less(bots[y], bots[x]) })
		}
	}
}

func (repo *botRepository) DeleteBotsByID(ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
