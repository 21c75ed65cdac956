package bootstrap

import (
	"context"
	"log/slog"
	"strings"

	"cloud.google.com/go/storage"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"bridgee/internal/bootstrap/config"
	"bridgee/internal/bootstrap/database"
	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/domain/application"
	"bridgee/internal/errs"
	"bridgee/internal/infrastructure/artifact"
	cacheinfra "bridgee/internal/infrastructure/cache"
	"bridgee/internal/infrastructure/jsonstore"
	"bridgee/internal/infrastructure/pdfinfo"
	sqliterepo "bridgee/internal/infrastructure/persistence/sqlite/repository"
	"bridgee/internal/infrastructure/telegram"
	"bridgee/internal/ports"
	blogsvc "bridgee/internal/usecase/blog"
	"bridgee/internal/usecase/intake"
	"bridgee/internal/usecase/review"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(provideApplicationStore),
	fx.Provide(provideBlogStore),
	fx.Provide(provideArtifactStore),
	fx.Provide(provideIdentifierScheme),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewTransitionLogRepository,
			fx.As(new(ports.TransitionLog)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(
		fx.Annotate(
			pdfinfo.NewInspector,
			fx.As(new(ports.DocumentInspector)),
		),
	),
	fx.Provide(provideNotifier),
	fx.Provide(review.NewService),
	fx.Provide(blogsvc.NewService),
	fx.Provide(provideIntakeService),
	fx.Invoke(registerSchemaMigration),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

// registerSchemaMigration keeps the sqlite tables current on every start so
// the bots can persist offsets without a separate init-db run.
func registerSchemaMigration(lc fx.Lifecycle, app *App) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return app.InitSchema(ctx)
		},
	})
}

func provideApplicationStore(cfg config.Config) ports.ApplicationStore {
	return jsonstore.NewApplicationStore(cfg.Storage.ApplicationsFile)
}

func provideBlogStore(cfg config.Config) ports.BlogStore {
	return jsonstore.NewBlogStore(cfg.Storage.BlogPostsFile)
}

func provideIdentifierScheme() application.IdentifierScheme {
	return application.TimestampPrefixScheme{}
}

func provideArtifactStore(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (ports.ArtifactStore, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	if strings.ToLower(cfg.Storage.ArtifactBackend) != "gcs" {
		logging.Info(logCtx, "using local artifact store", slog.String("dir", cfg.Storage.UploadDir))
		return artifact.NewLocalStore(cfg.Storage.UploadDir), nil
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "create gcs client")
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	logging.Info(logCtx, "using gcs artifact store",
		slog.String("bucket", cfg.Storage.GCSBucket),
		slog.String("prefix", cfg.Storage.GCSPrefix),
	)
	return artifact.NewGCSStore(client, cfg.Storage.GCSBucket, cfg.Storage.GCSPrefix), nil
}

// provideNotifier returns nil when intake notifications are off or the HR
// bot cannot be reached; submissions are accepted either way.
func provideNotifier(ctx context.Context, cfg config.Config, artifacts ports.ArtifactStore) ports.Notifier {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	tg := cfg.Telegram
	if !tg.NotifyOnIntake || tg.HRBotToken == "" || tg.HRChatID == 0 {
		logging.Info(logCtx, "intake notifications disabled")
		return nil
	}

	client, err := telegram.Dial(tg.HRBotToken, "hr")
	if err != nil {
		logging.Warn(logCtx, "intake notifications unavailable", slog.Any("err", errs.Loggable(err)))
		return nil
	}
	return telegram.NewNotifier(client, artifacts, tg.HRChatID)
}

type intakeParams struct {
	fx.In

	Config    config.Config
	Store     ports.ApplicationStore
	Artifacts ports.ArtifactStore
	IDs       application.IdentifierScheme
	Notifier  ports.Notifier
	Inspector ports.DocumentInspector
}

func provideIntakeService(p intakeParams) *intake.Service {
	return intake.NewService(p.Store, p.Artifacts, p.IDs, intake.Options{
		MaxUploadBytes: p.Config.Storage.MaxUploadBytes,
		Notifier:       p.Notifier,
		Inspector:      p.Inspector,
	})
}
