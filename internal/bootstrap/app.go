package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"bridgee/internal/bootstrap/config"
	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/errs"
	"bridgee/internal/infrastructure/persistence/sqlite/model"
	"bridgee/internal/ports"
	blogsvc "bridgee/internal/usecase/blog"
	"bridgee/internal/usecase/review"
)

// App is what every command gets: config plus the services that never reach
// out to a remote chat API.
type App struct {
	Config       config.Config
	DB           *gorm.DB
	Applications ports.ApplicationStore
	Artifacts    ports.ArtifactStore
	Cache        ports.Cache
	History      ports.TransitionLog
	Reviews      *review.Service
	Blog         *blogsvc.Service
}

type appParams struct {
	fx.In

	Config       config.Config
	DB           *gorm.DB
	Applications ports.ApplicationStore
	Artifacts    ports.ArtifactStore
	Cache        ports.Cache
	History      ports.TransitionLog
	Reviews      *review.Service
	Blog         *blogsvc.Service
}

func provideApp(p appParams) *App {
	return &App{
		Config:       p.Config,
		DB:           p.DB,
		Applications: p.Applications,
		Artifacts:    p.Artifacts,
		Cache:        p.Cache,
		History:      p.History,
		Reviews:      p.Reviews,
		Blog:         p.Blog,
	}
}

// InitSchema creates the tables for the transition history and the
// key-value cache. Application records and blog posts stay in JSON files.
func (a *App) InitSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	logging.Info(logCtx, "start schema migration")

	if err := a.DB.WithContext(ctx).AutoMigrate(
		&model.KVEntry{},
		&model.TransitionEvent{},
	); err != nil {
		return errs.Wrap(err, "auto migrate schema")
	}

	logging.Info(logCtx, "schema migration completed")
	return nil
}
