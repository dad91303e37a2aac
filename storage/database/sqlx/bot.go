package sqlxrepos

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/trezcool/ongea/core"
	"github.com/trezcool/ongea/core/bot"
)

// columns allowed in ORDER BY clauses.
var orderableColumns = map[string]bool{
	"name":       true,
	"phase":      true,
	"created_at": true,
	"updated_at": true,
}

type botRow struct {
	ID           string         `db:"id"`
	OwnerID      string         `db:"owner_id"`
	Name         string         `db:"name"`
	Phase        string         `db:"phase"`
	Graph        types.JSONText `db:"graph"`
	Rules        types.JSONText `db:"rules"`
	Instructions string         `db:"instructions"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func newBotRow(b bot.Bot) (botRow, error) {
	graph, err := json.Marshal(b.Graph)
	if err != nil {
		return botRow{}, errors.Wrap(err, "marshalling graph")
	}
	rules, err := json.Marshal(b.Rules)
	if err != nil {
		return botRow{}, errors.Wrap(err, "marshalling rules")
	}
	return botRow{
		ID:           b.ID,
		OwnerID:      b.OwnerID,
		Name:         b.Name,
		Phase:        string(b.Phase),
		Graph:        graph,
		Rules:        rules,
		Instructions: b.Instructions,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}, nil
}

func (row botRow) bot() (bot.Bot, error) {
	b := bot.Bot{
		ID:           row.ID,
		OwnerID:      row.OwnerID,
		Name:         row.Name,
		Phase:        bot.Phase(row.Phase),
		Instructions: row.Instructions,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if len(row.Graph) > 0 {
		if err := json.Unmarshal(row.Graph, &b.Graph); err != nil {
			return bot.Bot{}, errors.Wrap(err, "unmarshalling graph")
		}
	}
	if len(row.Rules) > 0 {
		if err := json.Unmarshal(row.Rules, &b.Rules); err != nil {
			return bot.Bot{}, errors.Wrap(err, "unmarshalling rules")
		}
	}
	return b, nil
}

type botRepository struct {
	db *sqlx.DB
}

var _ bot.Repository = (*botRepository)(nil) // interface compliance check

func NewBotRepository(db *sqlx.DB) bot.Repository {
	return &botRepository{db: db}
}

func (repo *botRepository) CreateBot(b bot.Bot) (bot.Bot, error) {
	row, err := newBotRow(b)
	if err != nil {
		return bot.Bot{}, err
	}

	q := `
	INSERT INTO bots (id, owner_id, name, phase, graph, rules, instructions, created_at, updated_at)
	VALUES (:id, :owner_id, :name, :phase, :graph, :rules, :instructions, :created_at, :updated_at)`
	if _, err = repo.db.NamedExec(q, row); err != nil {
		return bot.Bot{}, errors.Wrap(err, "inserting bot")
	}
	return b, nil
}

func (repo *botRepository) QueryAllBots() ([]bot.Bot, error) {
	var rows []botRow
	if err := repo.db.Select(&rows, "SELECT * FROM bots"); err != nil {
		return nil, errors.Wrap(err, "querying bots")
	}
	return bots(rows)
}

func (repo *botRepository) GetBotByID(id string) (bot.Bot, error) {
	var row botRow
	if err := repo.db.Get(&row, "SELECT * FROM bots WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return bot.Bot{}, bot.ErrNotFound
		}
		return bot.Bot{}, errors.Wrap(err, "querying bot")
	}
	return row.bot()
}

func (repo *botRepository) FilterBots(filter bot.QueryFilter, ordering ...core.DBOrdering) ([]bot.Bot, error) {
	var (
		clauses []string
		args    []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.OwnerID != "" {
		clauses = append(clauses, "owner_id = "+arg(filter.OwnerID))
	}
	if filter.Phase != "" {
		clauses = append(clauses, "phase = "+arg(string(filter.Phase)))
	}
	if filter.Search != "" {
		clauses = append(clauses, "name ILIKE "+arg("%"+filter.Search+"%"))
	}
	if !filter.CreatedFrom.IsZero() {
		clauses = append(clauses, "created_at >= "+arg(filter.CreatedFrom.UTC()))
	}
	if !filter.CreatedTo.IsZero() {
		clauses = append(clauses, "created_at <= "+arg(filter.CreatedTo.UTC()))
	}

	q := "SELECT * FROM bots"
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	if orderBy := orderByClause(ordering); orderBy != "" {
		q += " ORDER BY " + orderBy
	}

	var rows []botRow
	if err := repo.db.Select(&rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering bots")
	}
	return bots(rows)
}

func (repo *botRepository) UpdateBot(b bot.Bot) (bot.Bot, error) {
	orig, err := repo.GetBotByID(b.ID)
	if err != nil {
		return bot.Bot{}, err
	}

	// only save set fields
	if b.Name != "" {
		orig.Name = b.Name
	}
	if b.Phase != "" {
		orig.Phase = b.Phase
	}
	if b.Graph != nil {
		orig.Graph = b.Graph
	}
	if b.Rules != nil {
		orig.Rules = b.Rules
	}
	if b.Instructions != "" {
		orig.Instructions = b.Instructions
	}
	orig.UpdatedAt = b.UpdatedAt

	row, err := newBotRow(orig)
	if err != nil {
		return bot.Bot{}, err
	}

	q := `
	UPDATE bots
	SET name = :name, phase = :phase, graph = :graph, rules = :rules,
	    instructions = :instructions, updated_at = :updated_at
	WHERE id = :id`
	if _, err = repo.db.NamedExec(q, row); err != nil {
		return bot.Bot{}, errors.Wrap(err, "updating bot")
	}
	return orig, nil
}

func (repo *botRepository) DeleteBotsByID(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In("DELETE FROM bots WHERE id IN (?)", ids)
	if err != nil {
		return errors.Wrap(err, "deleting bots")
	}
	if _, err = repo.db.Exec(repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting bots")
	}
	return nil
}

func bots(rows []botRow) ([]bot.Bot, error) {
	res := make([]bot.Bot, 0, len(rows))
	for _, row := range rows {
		b, err := row.bot()
		if err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, nil
}

func orderByClause(ordering []core.DBOrdering) string {
	var parts []string
	for _, ord := range ordering {
		if orderableColumns[ord.Field] {
			parts = append(parts, ord.String())
		}
	}
	return strings.Join(parts, ", ")
}
