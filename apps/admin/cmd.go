package main

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/trezcool/ongea/core"
	"github.com/trezcool/ongea/core/bot"
	"github.com/trezcool/ongea/storage/database"
	sqlxrepos "github.com/trezcool/ongea/storage/database/sqlx"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf *core.Config
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createdb                 - create the database and app user if they do not exist")
	fmt.Println("  migrate                  - run all pending database migrations")
	fmt.Println("  seeddemo -owner OWNER_ID - create demo bots for the given owner")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	seedDemoCmd := flag.NewFlagSet("seeddemo", flag.ExitOnError)
	seedDemoOwner := seedDemoCmd.String("owner", "", "The owner the demo bots belong to.")

	switch args[1] {
	case "createdb":
		return cli.createDB()
	case "migrate":
		return cli.migrate()
	case "seeddemo":
		if err := seedDemoCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *seedDemoOwner == "" {
			seedDemoCmd.Usage()
			return errHelp
		}
		return cli.seedDemo(*seedDemoOwner)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) createDB() error {
	if err := database.CreateIfNotExist(cli.conf); err != nil {
		return err
	}
	logger.Println("database ready")
	return nil
}

func (cli *commandLine) migrate() error {
	db, err := database.Open(cli.conf)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if err = database.Ping(db); err != nil {
		return err
	}

	if err = database.Migrate(db); err != nil {
		return err
	}
	logger.Println("migrations complete")
	return nil
}

// seedDemo creates one bot per phase so a fresh install has something to chat with.
func (cli *commandLine) seedDemo(ownerID string) error {
	db, err := database.Open(cli.conf)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if err = database.Ping(db); err != nil {
		return err
	}

	repo := sqlxrepos.NewBotRepository(db)
	now := time.Now().UTC()

	demos := []bot.Bot{
		{
			ID:      "demo-greeter",
			OwnerID: ownerID,
			Name:    "Demo Greeter",
			Phase:   bot.PhaseDecisionTree,
			Graph: &bot.GraphConfig{
				Nodes: []bot.Node{
					{ID: "start", Kind: bot.KindStart, Message: "Hi there!"},
					{ID: "ask", Kind: bot.KindQuestion, Message: "Are you here to study?", Fallback: "It's a yes or no question :)"},
					{ID: "study", Kind: bot.KindResponse, Message: "Great, let's get to it!"},
					{ID: "bye", Kind: bot.KindEnd, Message: "No worries. See you around!"},
				},
				Edges: []bot.Edge{
					{ID: "e1", Source: "start", Target: "ask"},
					{ID: "e2", Source: "ask", Target: "study", Condition: "yes,yeah,sure"},
					{ID: "e3", Source: "ask", Target: "bye", Condition: "no,nope"},
					{ID: "e4", Source: "study", Target: "bye", Condition: "default"},
				},
			},
		},
		{
			ID:      "demo-faq",
			OwnerID: ownerID,
			Name:    "Demo FAQ",
			Phase:   bot.PhaseKeywords,
			Rules: []bot.Rule{
				{ID: "r1", Keywords: []string{"hours", "open"}, Response: "The library is open 8am-8pm.", MatchMode: bot.ModeAny, Priority: 1},
				{ID: "r2", Keywords: []string{"bye", "goodbye"}, Response: "See you!", MatchMode: bot.ModeAny},
				{ID: "r3", Response: "Sorry, I can only answer library questions.", IsFallback: true},
			},
		},
		{
			ID:           "demo-helper",
			OwnerID:      ownerID,
			Name:         "Demo Helper",
			Phase:        bot.PhaseAssistant,
			Instructions: "You are a friendly study buddy. Keep answers short and encouraging.",
		},
	}
	for _, b := range demos {
		b.CreatedAt, b.UpdatedAt = now, now
		if _, err = repo.CreateBot(b); err != nil {
			return err
		}
		logger.Printf("created %s (%s)\n", b.Name, b.Phase)
	}
	return nil
}
