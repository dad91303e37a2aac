package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/trezcool/ongea/apps/api/echo"
	"github.com/trezcool/ongea/core"
	"github.com/trezcool/ongea/core/bot"
	dummyassistant "github.com/trezcool/ongea/services/assistant/dummy"
	geminiassistant "github.com/trezcool/ongea/services/assistant/gemini"
	logsvc "github.com/trezcool/ongea/services/logger"
	"github.com/trezcool/ongea/storage/database"
	sqlxrepos "github.com/trezcool/ongea/storage/database/sqlx"
)

// build is the git version of this program, set via -ldflags on release builds.
var build = "dev"

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig(build)
	errAndDie(std, err)

	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!(conf.Debug || conf.TestMode))

	// set up DB
	db, err := database.Open(conf)
	errAndDie(std, err)
	defer func() { _ = db.Close() }()
	errAndDie(std, database.Ping(db))

	// set up services
	var assistantSvc core.AssistantService
	if conf.Assistant.Provider == "gemini" {
		assistantSvc, err = geminiassistant.NewService(conf)
		errAndDie(std, err)
	} else {
		assistantSvc = dummyassistant.NewService()
	}
	botSvc := bot.NewService(sqlxrepos.NewBotRepository(db), bot.NewEngine(assistantSvc), logger)

	validate, translator := core.NewValidator()
	bot.RegisterValidators(validate, translator)

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	app := echoapi.NewServer(
		&echoapi.Options{
			AppConf:    conf,
			Address:    conf.Server.Address(),
			Logger:     logger,
			BotSvc:     botSvc,
			Validate:   validate,
			Translator: translator,
			SignalShutdown: func() {
				shutdown <- syscall.SIGTERM
			},
		},
	)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("API server listening on " + conf.Server.Address())
		serverErrors <- app.Start()
	}()

	select {
	case err = <-serverErrors:
		errAndDie(std, err)
	case sig := <-shutdown:
		logger.Info("shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = app.Stop(ctx); err != nil {
			logger.Error("graceful shutdown failed", err)
			errAndDie(std, app.Stop(context.Background()))
		}
	}
}

func errAndDie(std *log.Logger, err error) {
	if err != nil {
		std.Fatal(err)
	}
}
