package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/drakos74/free-ml/internal/automl"
	"github.com/drakos74/free-ml/internal/pipeline"
	"github.com/drakos74/free-ml/internal/profile"
	"github.com/drakos74/free-ml/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of the environment overrides, e.g. FREEML_SERVER_PORT.
const EnvPrefix = "FREEML"

type Server struct {
	Port  int  `mapstructure:"port"`
	Debug bool `mapstructure:"debug"`
}

type Storage struct {
	Root string `mapstructure:"root"`
}

type Upload struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

type Session struct {
	Secret string        `mapstructure:"secret"`
	MaxAge time.Duration `mapstructure:"max_age"`
}

type Training struct {
	Folds         int      `mapstructure:"folds"`
	Seed          int64    `mapstructure:"seed"`
	Sort          string   `mapstructure:"sort"`
	Include       []string `mapstructure:"include"`
	Exclude       []string `mapstructure:"exclude"`
	MaxCategories int      `mapstructure:"max_categories"`
}

type Profile struct {
	Bins                 int     `mapstructure:"bins"`
	CacheSize            int     `mapstructure:"cache_size"`
	CorrelationThreshold float64 `mapstructure:"correlation_threshold"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Config is the configuration of the application.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Storage  Storage  `mapstructure:"storage"`
	Upload   Upload   `mapstructure:"upload"`
	Session  Session  `mapstructure:"session"`
	Training Training `mapstructure:"training"`
	Profile  Profile  `mapstructure:"profile"`
	Log      Log      `mapstructure:"log"`
}

// New returns a viper instance with the defaults and the environment overrides.
// Flags can be bound to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	training := automl.DefaultConfig()
	opts := profile.DefaultOptions()

	v.SetDefault("server.port", 6090)
	v.SetDefault("server.debug", false)
	v.SetDefault("storage.root", storage.DefaultDir)
	v.SetDefault("upload.max_bytes", 32<<20)
	v.SetDefault("session.secret", "")
	v.SetDefault("session.max_age", 24*time.Hour)
	v.SetDefault("training.folds", training.Folds)
	v.SetDefault("training.seed", training.Seed)
	v.SetDefault("training.sort", "")
	v.SetDefault("training.include", []string{})
	v.SetDefault("training.exclude", []string{})
	v.SetDefault("training.max_categories", training.MaxCategories)
	v.SetDefault("profile.bins", opts.Bins)
	v.SetDefault("profile.cache_size", 16)
	v.SetDefault("profile.correlation_threshold", opts.CorrelationThreshold)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	return v
}

// Load reads the optional config file and decodes the configuration.
// Precedence: flags > env > config file > defaults.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read config '%s': %w", cfgFile, err)
		}
	} else {
		v.SetConfigName("free-ml")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("infra/config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("could not read config: %w", err)
			}
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}
	if used := v.ConfigFileUsed(); used != "" {
		log.Info().Str("file", used).Msg("loaded config")
	}
	return &c, nil
}

// Pipeline returns the step parameters.
func (c *Config) Pipeline() pipeline.Config {
	return pipeline.Config{
		Training: automl.Config{
			Name:          automl.DefaultConfig().Name,
			Folds:         c.Training.Folds,
			Seed:          c.Training.Seed,
			Sort:          c.Training.Sort,
			Include:       c.Training.Include,
			Exclude:       c.Training.Exclude,
			MaxCategories: c.Training.MaxCategories,
		},
		Profile: profile.Options{
			Title:                profile.DefaultOptions().Title,
			Bins:                 c.Profile.Bins,
			CorrelationThreshold: c.Profile.CorrelationThreshold,
		},
	}
}

// Logger sets up the global logger.
func (l Log) Logger() error {
	level, err := zerolog.ParseLevel(l.Level)
	if err != nil {
		return fmt.Errorf("could not parse log level '%s': %w", l.Level, err)
	}
	zerolog.SetGlobalLevel(level)
	if l.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return nil
}
