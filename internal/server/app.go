// Package server initializes and runs the vault server: it builds the
// logger, opens the configured storage engine, wires the business services,
// and serves the HTTP API until a shutdown signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/clione/sikre/internal/common"
	"github.com/clione/sikre/internal/logging"
	"github.com/clione/sikre/internal/server/config"
	"github.com/clione/sikre/internal/server/repositories/repomanager"
	"github.com/clione/sikre/internal/server/rest"
	"github.com/clione/sikre/internal/server/services"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	manager repomanager.RepositoryManager

	userService  *services.UserService
	vaultService *services.VaultService
	shareService *services.ShareService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	m, err := repomanager.New(ctx, cfg.DatabaseEngine, cfg.DatabaseDSN)
	if err != nil {
		if errors.Is(err, common.ErrorStoreUnavailable) {
			// the store being down at startup is fatal; report it both
			// structured and plain so it is visible without a log pipeline
			logger.Error(ctx, "store unavailable", "engine", cfg.DatabaseEngine, "error", err)
			fmt.Println("store unavailable:", err)
		}
		return nil, fmt.Errorf("db init error: %w", err)
	}

	us := services.NewUserService(m.Users(), cfg)
	vs := services.NewVaultService(m)
	ss := services.NewShareService(m, cfg.ShareTokenValidityDuration)

	return &App{
		config:       cfg,
		logger:       logger,
		manager:      m,
		userService:  us,
		vaultService: vs,
		shareService: ss,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := rest.NewServer(app.config.EndpointAddr, app.logger, app.userService, app.vaultService, app.shareService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.manager.Close(); err != nil {
		app.logger.Error(ctx, "error closing store", "error", err)
	}
}
