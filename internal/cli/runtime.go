package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/soyeahso/prodbot/internal/agent"
	"github.com/soyeahso/prodbot/internal/config"
	"github.com/soyeahso/prodbot/internal/hooks"
	"github.com/soyeahso/prodbot/internal/llm"
	"github.com/soyeahso/prodbot/internal/metrics"
	"github.com/soyeahso/prodbot/internal/sink"
	"github.com/soyeahso/prodbot/internal/store"
	"github.com/soyeahso/prodbot/internal/tools"
)

// runtime holds everything an agent turn needs, built from one config.
type runtime struct {
	cfg         config.Config
	engine      *agent.Engine
	hooks       *hooks.Manager
	metrics     *metrics.Collector
	sinks       *sink.Registry
	checkpoints store.Checkpointer
}

// loadConfig reads and validates the config, logging each issue.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, err
	}
	if issues := config.Validate(&cfg); len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return cfg, fmt.Errorf("config validation failed with %d issue(s)", len(issues))
	}
	return cfg, nil
}

// buildRuntime wires the checkpoint store, event sinks, model failover chain
// and MCP tool loader into an engine. The engine is not initialized.
func buildRuntime(ctx context.Context, cfg config.Config) (*runtime, error) {
	if err := paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("creating data directories: %w", err)
	}

	checkpoints, err := store.Open(ctx, cfg.Checkpoint, paths.CheckpointDB(cfg.Checkpoint), log)
	if err != nil {
		return nil, fmt.Errorf("opening checkpoint store: %w", err)
	}
	log.Info().Str("store", cfg.Checkpoint.Store).Msg("checkpoint store ready")

	hm := hooks.NewManager(log)
	collector := metrics.NewCollector()
	sinks := sink.NewRegistry(log)
	if err := sinks.Register(collector); err != nil {
		checkpoints.Close()
		return nil, err
	}
	if cfg.Events.NATSURL != "" {
		pub, err := hooks.ConnectNATS(cfg.Events.NATSURL, cfg.Events.Subject, log)
		if err != nil {
			log.Warn().Err(err).Msg("event publishing disabled")
		} else if err := sinks.Register(pub); err != nil {
			pub.Close()
		}
	}
	sinks.AttachAll(hm)

	registry := llm.NewRegistryFromConfig(ctx, cfg.Models, log)
	if providers := registry.List(); len(providers) > 0 {
		log.Info().Strs("providers", providers).Msg("LLM providers available")
	} else {
		log.Warn().Msg("no LLM providers available; runs will fail")
	}
	model := llm.NewFailoverClient(registry, cfg.Models.Provider, cfg.Models.Fallbacks, log)

	var loaderOpts []tools.LoaderOption
	if cfg.MCP.ConnectTimeout > 0 {
		loaderOpts = append(loaderOpts, tools.WithTimeout(time.Duration(cfg.MCP.ConnectTimeout)*time.Second))
	}
	toolReg := tools.NewRegistry()
	loader := tools.NewLoader(cfg.MCP.Servers, toolReg, log, loaderOpts...)

	engine := agent.New(cfg.Agent, model, toolReg, checkpoints, log,
		agent.WithLifecycle(loader),
		agent.WithHooks(hm),
	)

	return &runtime{
		cfg:         cfg,
		engine:      engine,
		hooks:       hm,
		metrics:     collector,
		sinks:       sinks,
		checkpoints: checkpoints,
	}, nil
}

// Close releases sinks and the checkpoint store. The engine must already be
// shut down.
func (r *runtime) Close() {
	r.sinks.CloseAll()
	if err := r.checkpoints.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing checkpoint store")
	}
}
