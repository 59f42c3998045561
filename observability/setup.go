package observability

import (
	"context"
	"errors"
)

// Config groups tracing and metrics settings.
type Config struct {
	Tracing TracerConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MeterConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// ShutdownFunc flushes and stops whatever Setup started.
type ShutdownFunc func(context.Context) error

// Setup starts the providers enabled in cfg. Service name and version fill
// in blanks on both sub-configs. The returned ShutdownFunc is never nil.
func Setup(ctx context.Context, cfg Config, service, version string) (ShutdownFunc, error) {
	var shutdowns []ShutdownFunc
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return errors.Join(errs...)
	}

	if cfg.Tracing.Enabled {
		tp, err := InitTracer(ctx, fillTracer(cfg.Tracing, service, version))
		if err != nil {
			return shutdown, err
		}
		shutdowns = append(shutdowns, tp.Shutdown)
	}

	if cfg.Metrics.Enabled {
		mc := fillMeter(cfg.Metrics, service, version)
		mp, err := InitMeter(ctx, &mc)
		if err != nil {
			return shutdown, errors.Join(err, shutdown(ctx))
		}
		shutdowns = append(shutdowns, mp.Shutdown)
	}

	return shutdown, nil
}

// fillTracer replaces zero fields of cfg with DefaultTracerConfig values.
func fillTracer(cfg TracerConfig, service, version string) TracerConfig {
	def := DefaultTracerConfig(service)
	if cfg.ServiceName == "" {
		cfg.ServiceName = def.ServiceName
	}
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = version
	}
	if cfg.Environment == "" {
		cfg.Environment = def.Environment
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = def.Endpoint
		cfg.Insecure = def.Insecure
	}
	return cfg
}

// fillMeter replaces zero fields of cfg with DefaultMeterConfig values.
func fillMeter(cfg MeterConfig, service, version string) MeterConfig {
	def := DefaultMeterConfig(service)
	if cfg.ServiceName == "" {
		cfg.ServiceName = def.ServiceName
	}
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = version
	}
	if cfg.Environment == "" {
		cfg.Environment = def.Environment
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = def.Endpoint
		cfg.Insecure = def.Insecure
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	return cfg
}
