package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"droscher.com/BeanJournal/configs"
	"droscher.com/BeanJournal/pkg/auth"
	"droscher.com/BeanJournal/pkg/journal"
	"droscher.com/BeanJournal/pkg/repository"
	"droscher.com/BeanJournal/pkg/server"
)

const timeout = 5 * time.Second

type ServeCmd struct {
	ConfigFile string `default:".BeanJournal.toml" help:"Path to config file"                   short:"c"`
	Migrate    bool   `help:"Run pending data migrations before serving"`
}

func (s *ServeCmd) Run(cliCtx *Context) error {
	logConfig := zap.NewProductionConfig()

	if cliCtx.Debug {
		logConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logger, _ := logConfig.Build()
	defer logger.Sync() //nolint:errcheck // we don't care about logger sync errors

	conf, err := configs.GetConfig(s.ConfigFile, logger)
	if err != nil {
		logger.Error("error loading config", zap.Error(err))

		return err
	}

	if err := s.prepareStorage(conf, logger); err != nil {
		return err
	}

	repo, err := repository.Open(conf, logger)
	if err != nil {
		logger.Error("error opening journal storage", zap.Error(err))

		return err
	}
	defer repo.Close()

	service, err := journal.New(repo, logger)
	if err != nil {
		logger.Error("error creating journal service", zap.Error(err))

		return err
	}

	authManager := auth.NewAuthManager(conf, logger)
	handler := authManager.Middleware(server.NewJournalServer(service, logger).Handler())

	address := fmt.Sprintf(":%d", conf.Server.Port)

	corsHandler := configureCORS(handler, conf.Server.AllowedOrigins)
	serverHandler := h2c.NewHandler(corsHandler, &http2.Server{})

	svr := &http.Server{
		Addr:              address,
		ReadHeaderTimeout: timeout,
		Handler:           serverHandler,
	}

	logger.Info("serving journal",
		zap.String("address", address),
		zap.String("backend", conf.Storage.Backend),
		zap.Bool("auth", conf.UsesAuth()))

	err = svr.ListenAndServe()
	if err != nil {
		logger.Error("failed to start server", zap.Error(err))

		return err
	}

	return nil
}

// prepareStorage migrates or checks the data before any table is opened.
func (s *ServeCmd) prepareStorage(conf *configs.Config, logger *zap.Logger) error {
	var err error

	switch {
	case conf.Storage.Backend == configs.BackendPostgres && s.Migrate:
		err = migrateDatabase(conf, logger)
	case conf.Storage.Backend == configs.BackendPostgres:
		return nil
	case s.Migrate:
		err = migrateDataDir(context.Background(), conf, logger, !conf.Migration.SkipBackup)
	default:
		err = checkDataDir(conf, logger)
	}

	if err != nil {
		logger.Error("data directory is not ready", zap.Error(err))
	}

	return err
}

func configureCORS(handler http.Handler, allowedOrigins []string) http.Handler {
	corsOpts := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD"},
		AllowedHeaders: []string{
			"accept",
			"accept-encoding",
			"accept-language",
			"authorization",
			"cache-control",
			"content-encoding",
			"content-length",
			"content-type",
			"origin",
			"referer",
			"user-agent",
			"x-request-id",
		},
		ExposedHeaders:     []string{"x-request-id"},
		MaxAge:             86400, // 24 hours
		OptionsPassthrough: false,
	})

	return corsOpts.Handler(handler)
}
