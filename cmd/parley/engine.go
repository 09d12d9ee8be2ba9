package main

import (
	"context"
	"fmt"
	"log/slog"

	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/parleylabs/parley"
	"github.com/parleylabs/parley/internal/config"
	"github.com/parleylabs/parley/internal/logging"
	"github.com/parleylabs/parley/pkg/adapters/genai"
	"github.com/parleylabs/parley/pkg/adapters/process"
	redisAdapter "github.com/parleylabs/parley/pkg/adapters/redis"
	"github.com/parleylabs/parley/pkg/tutor"
)

// newEngine builds the engine from --config, --agent, or the built-in David
// demo, in that order of precedence. Extra options are appended last so
// callers can override the wiring.
func newEngine(cmd *cobra.Command, extra ...parley.Option) (*parley.Engine, *config.File, error) {
	agentPath, _ := cmd.Flags().GetString("agent")
	configPath, _ := cmd.Flags().GetString("config")

	logger := logging.New(slog.LevelInfo)
	opts := []parley.Option{parley.WithLogger(logger)}

	var cfg *config.File
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
		opts = append(opts, configOptions(cmd.Context(), cfg, logger)...)
	}

	switch {
	case cfg != nil && len(cfg.Agent.Contexts) > 0:
		opts = append(opts, parley.WithDefinition(cfg.Agent))
	case agentPath != "":
		// Loam source; hot reload stays available.
	default:
		opts = append(opts, parley.WithDefinition(tutor.Definition()))
	}

	opts = append(opts, extra...)
	engine, err := parley.New(agentPath, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	if cfg == nil {
		cfg = &config.File{}
		cfg.Server.Host = config.DefaultHost
		cfg.Server.Port = config.DefaultPort
	}
	return engine, cfg, nil
}

// configOptions translates the server config block into engine options.
func configOptions(ctx context.Context, cfg *config.File, logger *slog.Logger) []parley.Option {
	var opts []parley.Option

	if cfg.Server.SummaryWebhook != "" {
		opts = append(opts, parley.WithSummaryWebhook(cfg.Server.SummaryWebhook))
	}

	if cfg.Server.RedisAddr != "" {
		client := backend.NewClient(&backend.Options{Addr: cfg.Server.RedisAddr})
		opts = append(opts,
			parley.WithStore(redisAdapter.NewFromClient(client)),
			parley.WithLocker(redisAdapter.NewLocker(client, "parley:lock:")),
		)
	}

	judgeConfigured := false
	if cfg.Server.JudgesFile != "" && cfg.Server.Judge != "" {
		judges, err := process.LoadJudges(cfg.Server.JudgesFile)
		if err != nil {
			logger.Warn("judge oracle disabled", "err", err)
		} else if judge, ok := judges[cfg.Server.Judge]; ok {
			opts = append(opts, parley.WithOracle(process.NewOracleFromJudge(judge)))
			judgeConfigured = true
		} else {
			logger.Warn("judge not found in judges file", "judge", cfg.Server.Judge)
		}
	}

	if cfg.Server.Oracle.APIKey != "" {
		var oracleOpts []genai.OracleOption
		if cfg.Server.Oracle.Model != "" {
			oracleOpts = append(oracleOpts, genai.WithModel(cfg.Server.Oracle.Model))
		}
		// The local judge wins the oracle slot; Gemini still serves summaries.
		if !judgeConfigured {
			if oracle, err := genai.NewOracle(ctx, cfg.Server.Oracle.APIKey, oracleOpts...); err != nil {
				logger.Warn("oracle disabled", "err", err)
			} else {
				opts = append(opts, parley.WithOracle(oracle))
			}
		}
		if summarizer, err := genai.NewSummarizer(ctx, cfg.Server.Oracle.APIKey, oracleOpts...); err != nil {
			logger.Warn("summarizer disabled", "err", err)
		} else {
			opts = append(opts, parley.WithSummarizer(summarizer))
		}
	}

	return opts
}
