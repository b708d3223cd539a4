package telemetry

import (
	"github.com/mridultyagi687/TSGLogistics-sub000/core/factory"
	coretelemetry "github.com/mridultyagi687/TSGLogistics-sub000/core/telemetry"
)

// init registers built-in telemetry publishers.
func init() {
	_ = coretelemetry.RegisterPublisher("nop", func(map[string]any) (coretelemetry.Publisher, error) {
		return coretelemetry.NopPublisher{}, nil
	})

	_ = coretelemetry.RegisterPublisher("mqtt", func(conf map[string]any) (coretelemetry.Publisher, error) {
		var c MQTTConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewMQTTPublisher(c)
	})

	_ = coretelemetry.RegisterPublisher("kafka", func(conf map[string]any) (coretelemetry.Publisher, error) {
		var c KafkaConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewKafkaPublisher(c), nil
	})
}
