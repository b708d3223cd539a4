// Package config loads and validates the engine configuration from a JSON or
// YAML file, with TSG_-prefixed environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/mridultyagi687/TSGLogistics-sub000/core/metrics"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/telemetry"
	"github.com/mridultyagi687/TSGLogistics-sub000/infra/httpx"
)

type Config struct {
	Engine      EngineConfig     `json:"engine"`
	LoadStore   httpx.Config     `json:"load_store"`
	VendorStore httpx.Config     `json:"vendor_store"`
	Metrics     metrics.Config   `json:"metrics"`
	Telemetry   telemetry.Config `json:"telemetry"`
	API         APIConfig        `json:"api"`
	Logging     LoggingConfig    `json:"logging"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("TSG_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "tsg_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Engine.SetDefaults()
	cfg.API.SetDefaults()
	cfg.Logging.SetDefaults()
	if err := cfg.Engine.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if err := cfg.LoadStore.Validate(); err != nil {
		return nil, fmt.Errorf("load_store: %w", err)
	}
	if err := cfg.VendorStore.Validate(); err != nil {
		return nil, fmt.Errorf("vendor_store: %w", err)
	}
	if err := cfg.API.Validate(); err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	return &cfg, nil
}
