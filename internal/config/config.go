package config

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/Alturino/wintercollection/internal/constants"
)

type Application struct {
	Env       string `mapstructure:"env"        json:"env"`
	Host      string `mapstructure:"host"       json:"host"`
	StaticDir string `mapstructure:"static_dir" json:"static_dir"`
	LogPath   string `mapstructure:"log_path"   json:"log_path"`
	Port      int    `mapstructure:"port"       json:"port"`
}

type Mongo struct {
	URI        string `mapstructure:"uri"        json:"-"`
	Name       string `mapstructure:"name"       json:"name"`
	Collection string `mapstructure:"collection" json:"collection"`
}

type Postgres struct {
	Name           string `mapstructure:"name"            json:"name"`
	Host           string `mapstructure:"host"            json:"host"`
	MigrationPath  string `mapstructure:"migration_path"  json:"migration_path"`
	Password       string `mapstructure:"password"        json:"-"`
	Username       string `mapstructure:"username"        json:"username"`
	MaxConnections int32  `mapstructure:"max_connections" json:"max_connections"`
	MinConnections int32  `mapstructure:"min_connections" json:"min_connections"`
	Port           uint16 `mapstructure:"port"            json:"port"`
}

// Database selects the cart store. Driver is one of mongo, postgres or memory.
type Database struct {
	Driver   string   `mapstructure:"driver"   json:"driver"`
	Mongo    Mongo    `mapstructure:"mongo"    json:"mongo"`
	Postgres Postgres `mapstructure:"postgres" json:"postgres"`
}

type Cache struct {
	Host     string        `mapstructure:"host"     json:"host"`
	Password string        `mapstructure:"password" json:"-"`
	TTL      time.Duration `mapstructure:"ttl"      json:"ttl"`
	Database int           `mapstructure:"database" json:"database"`
	Port     uint16        `mapstructure:"port"     json:"port"`
	Enabled  bool          `mapstructure:"enabled"  json:"enabled"`
}

type Otel struct {
	Host    string `mapstructure:"host"    json:"host"`
	Port    int    `mapstructure:"port"    json:"port"`
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
}

// Client configures the storefront side: where the cart service lives and
// where the local cart copy is kept. StorageDriver is one of sqlite, redis or memory.
type Client struct {
	BaseURL       string        `mapstructure:"base_url"       json:"base_url"`
	StorageDriver string        `mapstructure:"storage_driver" json:"storage_driver"`
	StoragePath   string        `mapstructure:"storage_path"   json:"storage_path"`
	Timeout       time.Duration `mapstructure:"timeout"        json:"timeout"`
}

type Config struct {
	Database    `mapstructure:"db"          json:"db"`
	Cache       `mapstructure:"cache"       json:"cache"`
	Application `mapstructure:"application" json:"application"`
	Otel        `mapstructure:"otel"        json:"otel"`
	Client      `mapstructure:"client"      json:"client"`
}

var (
	once   sync.Once
	config *Config
)

func Get(c context.Context, filename string) *Config {
	once.Do(func() {
		logger := zerolog.Ctx(c).
			With().
			Str(constants.KEY_TAG, "config Get").
			Str("filename", filename).
			Logger()

		c = logger.WithContext(c)
		cfg, err := Load(c, "./env", filename)
		if err != nil {
			logger.Fatal().Err(err).Msg(err.Error())
		}
		config = &cfg
	})
	return config
}

func Load(c context.Context, path string, filename string) (Config, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "config Load").
		Str(constants.KEY_PROCESS, "init config").
		Str("filename", filename).
		Logger()

	v := viper.New()
	v.SetConfigName(filename)
	v.AddConfigPath(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	logger = logger.With().Str(constants.KEY_PROCESS, "reading config").Logger()
	logger.Info().Msg("reading config")
	err := v.ReadInConfig()
	if err != nil {
		err = fmt.Errorf("error when reading config with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return Config{}, err
	}
	logger.Info().Msg("read config")

	logger = logger.With().Str(constants.KEY_PROCESS, "unmarshaling config").Logger()
	logger.Info().Msg("unmarshaling config")
	cfg := Config{}
	err = v.Unmarshal(&cfg)
	if err != nil {
		err = fmt.Errorf("error unmarshaling config with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return Config{}, err
	}
	logger = logger.With().Any(constants.KEY_CONFIG, cfg).Logger()
	logger.Info().Msg("unmarshaled config")

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("application.env", "development")
	v.SetDefault("application.host", "localhost")
	v.SetDefault("application.port", 5000)
	v.SetDefault("application.log_path", "./logs/wintercollection.log")
	v.SetDefault("db.driver", "mongo")
	v.SetDefault("db.mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("db.mongo.name", "winter-collection")
	v.SetDefault("db.mongo.collection", "carts")
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("client.base_url", "http://localhost:5000/api/cart")
	v.SetDefault("client.storage_driver", "sqlite")
	v.SetDefault("client.storage_path", "storefront.db")
	v.SetDefault("client.timeout", 10*time.Second)
}
