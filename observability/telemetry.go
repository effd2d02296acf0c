package observability

import (
	"context"
	"errors"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/backendkit/core"
	"github.com/kbukum/backendkit/logger"
	"github.com/kbukum/backendkit/version"
)

// Config is the backend.telemetry configuration section.
type Config struct {
	Enabled     bool          `mapstructure:"enabled"`
	Endpoint    string        `mapstructure:"endpoint"`
	Insecure    bool          `mapstructure:"insecure"`
	SampleRate  float64       `mapstructure:"sampleRate" validate:"gte=0,lte=1"`
	Interval    time.Duration `mapstructure:"interval"`
	Version     string        `mapstructure:"version"`
	Environment string        `mapstructure:"environment"`
}

// Telemetry owns the providers installed by Setup.
type Telemetry struct {
	tracer *sdktrace.TracerProvider
	meter  *sdkmetric.MeterProvider
}

// Enabled reports whether exporters were installed.
func (t *Telemetry) Enabled() bool { return t.tracer != nil }

// Shutdown flushes and stops the providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.tracer != nil {
		errs = append(errs, t.tracer.Shutdown(ctx))
	}
	if t.meter != nil {
		errs = append(errs, t.meter.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// Setup reads backend.telemetry and, when enabled, installs OTLP trace and
// metric providers globally. The providers are shut down by a lifecycle
// hook.
func Setup(ctx context.Context, cfg core.Config, lc core.LifecycleService, log *logger.Logger) (*Telemetry, error) {
	name := cfg.GetString("backend.name")
	if name == "" {
		name = "backend"
	}
	tc := DefaultTracerConfig(name)
	mc := DefaultMeterConfig(name)

	var section Config
	if cfg.Has("backend.telemetry") {
		if err := cfg.UnmarshalKey("backend.telemetry", &section); err != nil {
			return nil, err
		}
	}
	if !section.Enabled {
		return &Telemetry{}, nil
	}

	if section.Endpoint != "" {
		tc.Endpoint, mc.Endpoint = section.Endpoint, section.Endpoint
	}
	if section.Version == "" {
		section.Version = version.Get().String()
	}
	tc.Version, mc.Version = section.Version, section.Version
	if section.Environment != "" {
		tc.Environment, mc.Environment = section.Environment, section.Environment
	}
	if section.SampleRate > 0 {
		tc.SampleRate = section.SampleRate
	}
	if section.Interval > 0 {
		mc.Interval = section.Interval
	}
	tc.Insecure, mc.Insecure = section.Insecure, section.Insecure

	tp, err := InitTracer(ctx, tc)
	if err != nil {
		return nil, err
	}
	mp, err := InitMeter(ctx, mc)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	t := &Telemetry{tracer: tp, meter: mp}
	lc.AddShutdownHook("telemetry", t.Shutdown)
	log.Info("Telemetry enabled", map[string]interface{}{
		"endpoint":    tc.Endpoint,
		"sample_rate": tc.SampleRate,
	})
	return t, nil
}
