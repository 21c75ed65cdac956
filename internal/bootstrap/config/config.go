package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/errs"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DatabaseConfig points at the SQLite file that holds the transition
// history and the key-value cache. Application records do not live here.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type StorageConfig struct {
	ApplicationsFile string `mapstructure:"applications_file"`
	BlogPostsFile    string `mapstructure:"blog_posts_file"`
	ArtifactBackend  string `mapstructure:"artifact_backend"`
	UploadDir        string `mapstructure:"upload_dir"`
	GCSBucket        string `mapstructure:"gcs_bucket"`
	GCSPrefix        string `mapstructure:"gcs_prefix"`
	MaxUploadBytes   int64  `mapstructure:"max_upload_bytes"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type TelegramConfig struct {
	HRBotToken       string        `mapstructure:"hr_bot_token"`
	HRChatID         int64         `mapstructure:"hr_chat_id"`
	BlogBotToken     string        `mapstructure:"blog_bot_token"`
	BlogAdminChatID  int64         `mapstructure:"blog_admin_chat_id"`
	PollTimeout      time.Duration `mapstructure:"poll_timeout"`
	NotifyOnIntake   bool          `mapstructure:"notify_on_intake"`
	WatchStoreForNew bool          `mapstructure:"watch_store_for_new"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BRIDGEE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("applications_file", cfg.Storage.ApplicationsFile),
		slog.String("artifact_backend", cfg.Storage.ArtifactBackend),
	)

	return cfg, nil
}

func (c Config) validate() error {
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if c.Storage.ApplicationsFile == "" {
		return errors.New("storage.applications_file is required")
	}
	if c.Storage.BlogPostsFile == "" {
		return errors.New("storage.blog_posts_file is required")
	}
	if c.Storage.MaxUploadBytes <= 0 {
		return errors.New("storage.max_upload_bytes must be positive")
	}
	switch strings.ToLower(c.Storage.ArtifactBackend) {
	case "local":
		if c.Storage.UploadDir == "" {
			return errors.New("storage.upload_dir is required for the local artifact backend")
		}
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return errors.New("storage.gcs_bucket is required for the gcs artifact backend")
		}
	default:
		return errs.Wrapf(errors.New("unsupported artifact backend"), "storage.artifact_backend %q", c.Storage.ArtifactBackend)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "bridgee")
	v.SetDefault("app.env", "local")
	v.SetDefault("log.level", "info")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/bridgee.sqlite")

	v.SetDefault("storage.applications_file", "submitted_applications.log.json")
	v.SetDefault("storage.blog_posts_file", "blog_posts.json")
	v.SetDefault("storage.artifact_backend", "local")
	v.SetDefault("storage.upload_dir", "uploads")
	v.SetDefault("storage.gcs_prefix", "cv/")
	v.SetDefault("storage.max_upload_bytes", int64(16<<20))

	v.SetDefault("http.addr", ":5000")
	v.SetDefault("http.allowed_origins", []string{"*"})
	v.SetDefault("http.shutdown_timeout", 10*time.Second)

	v.SetDefault("telegram.poll_timeout", 30*time.Second)
	v.SetDefault("telegram.notify_on_intake", true)
	v.SetDefault("telegram.watch_store_for_new", false)
}
