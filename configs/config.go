package configs

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kkyr/fig"
	"go.uber.org/zap"
)

const (
	BackendJSON     = "json"
	BackendPostgres = "postgres"
)

type Storage struct {
	Backend string `default:"json"`
	DataDir string `default:"data"`
}

// DB is only consulted by the postgres backend.
type DB struct {
	Host               string
	Port               int    `default:"5432"`
	User               string `default:"postgres"`
	Password           string
	Database           string `default:"postgres"`
	MaxIdleConnections int    `default:"10"`
	MaxOpenConnections int    `default:"10"`
}

type Server struct {
	Port           int      `default:"8080"`
	AllowedOrigins []string `default:"[*]"`
}

// Auth is disabled while SecretKey is empty.
type Auth struct {
	SecretKey string
	Audience  string
}

// Migration backs the data directory up before migrating unless SkipBackup is set.
type Migration struct {
	SchemaVersion string `default:"1.2"`
	SkipBackup    bool
}

type Config struct {
	Storage   Storage
	DB        DB
	Server    Server
	Auth      Auth
	Migration Migration
}

const envPrefix = "BEANJOURNAL" // env prefix for env vars

var ErrConfiguration = errors.New("configuration error")

func GetConfig(configFileName string, logger *zap.Logger) (*Config, error) {
	config := Config{}
	homeDir, _ := os.UserHomeDir()

	logger.Info("Loading config", zap.String("file", configFileName))

	err := fig.Load(&config, fig.File(configFileName), fig.Dirs(".", homeDir), fig.UseEnv(envPrefix))
	if err != nil {
		if strings.Contains(err.Error(), "file not found") {
			logger.Warn("Could not find config file", zap.String("file", configFileName))

			err = fig.Load(&config, fig.IgnoreFile(), fig.UseEnv(envPrefix))
			if err != nil {
				return nil, err
			}
		} else {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendJSON:
		if c.Storage.DataDir == "" {
			return fmt.Errorf("%w: Storage.DataDir is required", ErrConfiguration)
		}
	case BackendPostgres:
		var missing []string

		if c.DB.Host == "" {
			missing = append(missing, "DB.Host")
		}

		if c.DB.Password == "" {
			missing = append(missing, "DB.Password")
		}

		if len(missing) > 0 {
			return fmt.Errorf("%w: %s required for the postgres backend", ErrConfiguration, strings.Join(missing, ", "))
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrConfiguration, c.Storage.Backend)
	}

	return nil
}

func (c *Config) UsesAuth() bool {
	return c.Auth.SecretKey != ""
}
