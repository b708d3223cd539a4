package metrics

import "github.com/mridultyagi687/TSGLogistics-sub000/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks          []factory.ModuleConfig `json:"sinks"`
	PrometheusPort string                 `json:"prometheus_port"`
}

// PromEnabled reports whether a prometheus sink is configured.
func (c Config) PromEnabled() bool {
	for _, s := range c.Sinks {
		if s.Type == "prometheus" {
			return true
		}
	}
	return false
}
