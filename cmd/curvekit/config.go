package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/chazu/curvekit/pkg/engine"
	"github.com/chazu/curvekit/pkg/hull"
)

// envPrefix prefixes every environment override, e.g. CURVEKIT_LOG_LEVEL
// or CURVEKIT_HULL_DEDUP_DISTANCE.
const envPrefix = "CURVEKIT"

// newConf returns a viper instance preloaded with every default so that
// environment variables can override keys that appear nowhere else.
func newConf() *viper.Viper {
	conf := viper.New()
	conf.SetEnvPrefix(envPrefix)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	conf.AutomaticEnv()

	conf.SetDefault("log-level", "warn")
	conf.SetDefault("timeout", engine.EvalTimeout)
	for k, v := range hullDefaults() {
		conf.SetDefault("hull."+k, v)
	}
	return conf
}

// hullDefaults flattens hull.DefaultConfig into its tagged keys.
func hullDefaults() map[string]any {
	raw, err := json.Marshal(hull.DefaultConfig())
	if err != nil {
		panic(err)
	}
	out := make(map[string]any)
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return out
}

// settings is the resolved configuration of one command run.
type settings struct {
	Hull     hull.Config
	LogLevel slog.Level
	Timeout  time.Duration
}

// loadSettings reads the optional config file and decodes all layers.
func loadSettings(conf *viper.Viper) (settings, error) {
	var s settings
	if path := conf.GetString("config"); path != "" {
		conf.SetConfigFile(path)
		if err := conf.ReadInConfig(); err != nil {
			return s, fmt.Errorf("reading config: %w", err)
		}
	}
	// Unmarshal walks every leaf key, so nested env overrides apply.
	var layered struct {
		Hull hull.Config `mapstructure:"hull"`
	}
	if err := conf.Unmarshal(&layered); err != nil {
		return s, fmt.Errorf("decoding hull config: %w", err)
	}
	s.Hull = layered.Hull
	if err := s.Hull.Validate(); err != nil {
		return s, fmt.Errorf("hull config: %w", err)
	}
	if err := s.LogLevel.UnmarshalText([]byte(conf.GetString("log-level"))); err != nil {
		return s, fmt.Errorf("log level: %w", err)
	}
	s.Timeout = conf.GetDuration("timeout")
	if s.Timeout <= 0 {
		return s, fmt.Errorf("timeout %s must be positive", s.Timeout)
	}
	return s, nil
}
