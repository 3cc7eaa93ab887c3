package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Lenny-the-burger/hlg"
	"github.com/Lenny-the-burger/hlg/pkg/domain"
	"github.com/Lenny-the-burger/hlg/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// createInstance initializes an Instance with standard CLI conventions:
// metrics are always collected into a private registry, and debug mode
// adds stage logging.
func createInstance(ctx context.Context, opts RunOptions, logger *slog.Logger) (*hlg.Instance, *prometheus.Registry, error) {
	options, err := ResolveOptions(opts)
	if err != nil {
		return nil, nil, err
	}

	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return nil, nil, err
	}

	hooks := metrics.Hooks()
	if opts.Debug {
		hooks = domain.ComposeHooks(hooks, createDebugHooks(logger))
	}

	inst, err := hlg.Init(ctx, options,
		hlg.WithLogger(logger),
		hlg.WithLifecycleHooks(hooks),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing hlg: %w", err)
	}
	if err := observability.RegisterCache(reg, inst); err != nil {
		inst.Cleanup()
		return nil, nil, err
	}
	return inst, reg, nil
}
