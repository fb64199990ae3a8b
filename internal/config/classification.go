package config

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ClassificationConfig holds the thresholds used to label customers.
type ClassificationConfig struct {
	VIPOrderCount    int           `mapstructure:"vipOrderCount"`
	VIPLifetimeSpend float64       `mapstructure:"vipLifetimeSpend"`
	FirstTimeWindow  time.Duration `mapstructure:"firstTimeWindow"`
}

func DefaultClassificationConfig() ClassificationConfig {
	return ClassificationConfig{
		VIPOrderCount:    5,
		VIPLifetimeSpend: 500,
		FirstTimeWindow:  60 * time.Second,
	}
}

type ClassificationHolder struct {
	current atomic.Value // holds ClassificationConfig
}

// NewStaticClassificationHolder returns a holder that never reloads.
func NewStaticClassificationHolder(cfg ClassificationConfig) *ClassificationHolder {
	holder := &ClassificationHolder{}
	holder.current.Store(cfg)
	return holder
}

// NewClassificationHolder reads classification.yml when present and keeps
// watching it. Without a file the defaults apply.
func NewClassificationHolder(log *zap.Logger) (*ClassificationHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config.classification")

	v := viper.New()
	v.SetConfigName("classification")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/orderpulse")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ORDERPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultClassificationConfig()
	v.SetDefault("classification.vipOrderCount", defaults.VIPOrderCount)
	v.SetDefault("classification.vipLifetimeSpend", defaults.VIPLifetimeSpend)
	v.SetDefault("classification.firstTimeWindow", defaults.FirstTimeWindow)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileFound = false
	}

	var cfg ClassificationConfig
	if err := v.UnmarshalKey("classification", &cfg); err != nil {
		return nil, err
	}
	if err := validateClassificationConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticClassificationHolder(cfg)
	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated ClassificationConfig
		if err := v.UnmarshalKey("classification", &updated); err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if err := validateClassificationConfig(updated); err != nil {
			log.Warn("invalid config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *ClassificationHolder) Get() ClassificationConfig {
	if h == nil {
		return DefaultClassificationConfig()
	}
	return h.current.Load().(ClassificationConfig)
}

func validateClassificationConfig(cfg ClassificationConfig) error {
	if cfg.VIPOrderCount < 2 {
		return errors.New("classification.vipOrderCount must be at least 2")
	}
	if cfg.VIPLifetimeSpend <= 0 {
		return errors.New("classification.vipLifetimeSpend must be positive")
	}
	if cfg.FirstTimeWindow <= 0 {
		return errors.New("classification.firstTimeWindow must be positive")
	}
	return nil
}
