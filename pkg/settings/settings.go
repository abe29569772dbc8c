// Package settings loads the YAML settings shared by the laudo commands and builds their
// logger.
//
// Example file:
//
//	storage:
//	  url: "https://xyz.supabase.co"
//	  service_key: "..."
//	  bucket: "attachments"
//	  signed_url_ttl: 10m
//	database:
//	  dsn: "postgres://user:pw@db:5432/laudos?sslmode=disable"
//	server:
//	  addr: ":8080"
//	render:
//	  report_type: ""
//	  font_dir: "/usr/share/fonts/truetype/msttcorefonts"
//	  author: ""
//	  max_image_fetches: 6
//	log:
//	  level: info
//	  development: false
//
// Secrets may instead come from the environment, which overrides the file.
package settings

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/gardar/laudo/pkg/imaging"
	"github.com/gardar/laudo/pkg/laudo"
	"github.com/gardar/laudo/pkg/storage"
)

// Environment overrides.
const (
	EnvStorageURL  = "LAUDO_STORAGE_URL"
	EnvStorageKey  = "LAUDO_STORAGE_KEY"
	EnvDatabaseDSN = "LAUDO_DATABASE_DSN"
)

// Settings is the content of the settings file.
type Settings struct {
	Storage  StorageSettings  `yaml:"storage"`
	Database DatabaseSettings `yaml:"database"`
	Server   ServerSettings   `yaml:"server"`
	Render   RenderSettings   `yaml:"render"`
	Log      LogSettings      `yaml:"log"`
}

type StorageSettings struct {
	URL          string        `yaml:"url"`
	ServiceKey   string        `yaml:"service_key"`
	Bucket       string        `yaml:"bucket"`
	SignedURLTTL time.Duration `yaml:"signed_url_ttl"`
}

type DatabaseSettings struct {
	DSN string `yaml:"dsn"`
}

type ServerSettings struct {
	Addr string `yaml:"addr"`
}

type RenderSettings struct {
	ReportType      string `yaml:"report_type"`
	FontDir         string `yaml:"font_dir"`
	Author          string `yaml:"author"`
	MaxImageFetches int    `yaml:"max_image_fetches"`
}

type LogSettings struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the settings used when no file is given.
func Default() Settings {
	st := storage.DefaultConfig()
	return Settings{
		Storage: StorageSettings{Bucket: st.Bucket, SignedURLTTL: st.SignedURLTTL},
		Server:  ServerSettings{Addr: ":8080"},
		Render:  RenderSettings{MaxImageFetches: imaging.DefaultPrefetchLimit},
		Log:     LogSettings{Level: "info"},
	}
}

// Load reads the settings file at path on top of the defaults and applies the
// environment overrides. An empty path uses the defaults and the environment only.
func Load(path string) (Settings, error) {
	s := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return s, fmt.Errorf("failed to read settings: %w", err)
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("failed to parse settings %s: %w", path, err)
		}
	}
	s.applyEnv()
	return s, s.Validate()
}

func (s *Settings) applyEnv() {
	override := func(dst *string, env string) {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
		}
	}
	override(&s.Storage.URL, EnvStorageURL)
	override(&s.Storage.ServiceKey, EnvStorageKey)
	override(&s.Database.DSN, EnvDatabaseDSN)
}

// Validate rejects values no command can work with.
func (s Settings) Validate() error {
	var errs []error
	switch strings.ToLower(strings.TrimSpace(s.Render.ReportType)) {
	case "", "insalubridade", "periculosidade", "completo":
	default:
		errs = append(errs, fmt.Errorf("render.report_type %q is not insalubridade, periculosidade or completo", s.Render.ReportType))
	}
	if s.Render.MaxImageFetches < 0 {
		errs = append(errs, fmt.Errorf("render.max_image_fetches must not be negative"))
	}
	if _, err := zapcore.ParseLevel(s.Log.Level); s.Log.Level != "" && err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

// StorageConfig returns the storage client config.
func (s Settings) StorageConfig() storage.Config {
	cfg := storage.DefaultConfig()
	cfg.URL = s.Storage.URL
	cfg.ServiceKey = s.Storage.ServiceKey
	if s.Storage.Bucket != "" {
		cfg.Bucket = s.Storage.Bucket
	}
	if s.Storage.SignedURLTTL > 0 {
		cfg.SignedURLTTL = s.Storage.SignedURLTTL
	}
	return cfg
}

// ExportOptions returns export options wired to the given logger and a resolver over the
// configured storage.
func (s Settings) ExportOptions(log *zap.Logger) laudo.Options {
	opts := laudo.DefaultOptions()
	opts.Logger = log
	opts.ReportType = strings.ToLower(strings.TrimSpace(s.Render.ReportType))
	opts.PrefetchLimit = s.Render.MaxImageFetches
	opts.PDF.FontDir = s.Render.FontDir
	if s.Render.Author != "" {
		opts.DOCX.Author = s.Render.Author
	}

	rc := imaging.DefaultResolverConfig()
	rc.Logger = log
	if s.Storage.URL != "" {
		rc.Store = storage.New(s.StorageConfig())
	}
	opts.Resolver = imaging.NewResolver(rc)
	return opts
}

// NewLogger builds a JSON production logger, or a console logger in development.
func NewLogger(level string, development bool) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		lvl = parsed
	}
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// Logger builds the logger described by the log section.
func (s Settings) Logger() (*zap.Logger, error) {
	return NewLogger(s.Log.Level, s.Log.Development)
}
