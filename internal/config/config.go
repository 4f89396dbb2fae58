package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownBackend     = errors.New("unknown persistence backend")
	ErrInvalidGracePeriod = errors.New("grace period must be positive")
	ErrInvalidQueueSize   = errors.New("outbound queue size must be positive")
	ErrMissingRemoteURL   = errors.New("webapi backend requires a url")
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendWebAPI = "webapi"

	DefaultPath = "./config.yml"

	addrEnv = "SERVER_ADDR"
)

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	WSPath          string        `yaml:"ws_path"`
	PublicDir       string        `yaml:"public_dir"`
	InitDataPath    string        `yaml:"init_data_path"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type CoordinatorConfig struct {
	GracePeriod       time.Duration `yaml:"grace_period"`
	OutboundQueueSize int           `yaml:"outbound_queue_size"`
}

type FileConfig struct {
	Path string `yaml:"path"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

type WebAPIConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type PersistenceConfig struct {
	Backend     string        `yaml:"backend"`
	SaveTimeout time.Duration `yaml:"save_timeout"`
	File        FileConfig    `yaml:"file"`
	SQLite      SQLiteConfig  `yaml:"sqlite"`
	Redis       RedisConfig   `yaml:"redis"`
	WebAPI      WebAPIConfig  `yaml:"webapi"`
}

type LogConfig struct {
	Development bool `yaml:"development"`
}

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Coordinator CoordinatorConfig `yaml:"coordinator"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Log         LogConfig         `yaml:"log"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			WSPath:          "/ws",
			PublicDir:       "./public",
			InitDataPath:    "./config/init_data.json",
			ShutdownTimeout: 5 * time.Second,
		},
		Coordinator: CoordinatorConfig{
			GracePeriod:       5 * time.Second,
			OutboundQueueSize: 64,
		},
		Persistence: PersistenceConfig{
			Backend:     BackendFile,
			SaveTimeout: 5 * time.Second,
			File:        FileConfig{Path: "./data/current_game.json"},
			SQLite:      SQLiteConfig{Path: "./data/scoreboard.db"},
			Redis:       RedisConfig{Addr: "localhost:6379", Key: "scoreboard:current_game"},
			WebAPI:      WebAPIConfig{Timeout: 5 * time.Second},
		},
	}
}

// New reads the yaml file at cfgPath over the defaults. An empty path yields the defaults.
func New(cfgPath string) (Config, error) {
	cfg := Default()
	if cfgPath != "" {
		file, err := os.Open(cfgPath)
		if err != nil {
			return Config{}, err
		}
		defer func() {
			_ = file.Close()
		}()
		if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
			return Config{}, errors.WithMessagef(err, "decode config '%s'", cfgPath)
		}
	}
	if addr := os.Getenv(addrEnv); addr != "" {
		cfg.Server.Addr = addr
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Coordinator.GracePeriod <= 0 {
		return ErrInvalidGracePeriod
	}
	if c.Coordinator.OutboundQueueSize <= 0 {
		return ErrInvalidQueueSize
	}
	switch c.Persistence.Backend {
	case BackendFile, BackendSQLite, BackendRedis:
	case BackendWebAPI:
		if c.Persistence.WebAPI.URL == "" {
			return ErrMissingRemoteURL
		}
	default:
		return errors.WithMessagef(ErrUnknownBackend, "'%s'", c.Persistence.Backend)
	}
	return nil
}
