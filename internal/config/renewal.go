package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// RenewalConfig controls the renewal-due sweep. It can be changed at runtime
// by editing the renewal config file.
type RenewalConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
	LockTTL   time.Duration `mapstructure:"lock_ttl"`
}

func DefaultRenewalConfig() RenewalConfig {
	return RenewalConfig{
		Enabled:   true,
		Interval:  time.Minute,
		BatchSize: 100,
		LockTTL:   30 * time.Second,
	}
}

type RenewalConfigHolder struct {
	current atomic.Value // holds RenewalConfig
}

// NewStaticRenewalConfigHolder returns a holder that never reloads.
func NewStaticRenewalConfigHolder(cfg RenewalConfig) *RenewalConfigHolder {
	holder := &RenewalConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewRenewalConfigHolder(cfg Config) (*RenewalConfigHolder, error) {
	v := viper.New()

	defaults := DefaultRenewalConfig()
	v.SetDefault("renewal.enabled", defaults.Enabled)
	v.SetDefault("renewal.interval", defaults.Interval)
	v.SetDefault("renewal.batch_size", defaults.BatchSize)
	v.SetDefault("renewal.lock_ttl", defaults.LockTTL)

	if file := strings.TrimSpace(cfg.RenewalConfigFile); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("renewal")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/paylane")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PAYLANE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	watch := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		watch = false
	}

	var current RenewalConfig
	if err := v.UnmarshalKey("renewal", &current); err != nil {
		return nil, err
	}
	if err := validateRenewalConfig(current); err != nil {
		return nil, err
	}

	holder := NewStaticRenewalConfigHolder(current)
	if !watch {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated RenewalConfig
		if err := v.UnmarshalKey("renewal", &updated); err != nil {
			log.Printf("[renewal-config] reload failed: %v", err)
			return
		}
		if err := validateRenewalConfig(updated); err != nil {
			log.Printf("[renewal-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[renewal-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *RenewalConfigHolder) Get() RenewalConfig {
	return h.current.Load().(RenewalConfig)
}

func validateRenewalConfig(cfg RenewalConfig) error {
	if cfg.Interval <= 0 {
		return errors.New("renewal.interval must be positive")
	}
	if cfg.BatchSize <= 0 {
		return errors.New("renewal.batch_size must be positive")
	}
	if cfg.LockTTL <= 0 {
		return errors.New("renewal.lock_ttl must be positive")
	}
	return nil
}
