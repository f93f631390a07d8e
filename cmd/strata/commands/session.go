// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/bureau-foundation/strata/cmd/strata/cli"
	"github.com/bureau-foundation/strata/lib/backend/builtin"
	"github.com/bureau-foundation/strata/lib/chainfile"
	"github.com/bureau-foundation/strata/lib/config"
	"github.com/bureau-foundation/strata/lib/keychain"
	"github.com/bureau-foundation/strata/lib/pathspec"
	"github.com/bureau-foundation/strata/lib/registry"
	"github.com/bureau-foundation/strata/lib/resolver"
	"github.com/bureau-foundation/strata/lib/vfs"
)

// chainParams are the flags every resolving command shares.
type chainParams struct {
	Chain          string `json:"chain"           flag:"chain,c"         desc:"chain file (YAML, or JSONC with a .json/.jsonc extension)"`
	Config         string `json:"config"          flag:"config"          desc:"configuration file (default: $STRATA_CONFIG)"`
	PromptPassword int    `json:"prompt_password" flag:"prompt-password" desc:"prompt for the password of this chain layer" default:"-1"`
}

// session is one resolver with its configuration, registry, and
// keychain, built for a single command invocation.
type session struct {
	config   *config.Config
	logger   *slog.Logger
	registry *registry.Registry
	keys     *keychain.KeyChain
	resolver *resolver.Resolver
	gatherer prometheus.Gatherer
}

func openSession(configPath, command, chainPath string) (*session, error) {
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	logger := cli.NewCommandLogger(level, command, chainPath)

	if err := cfg.EnsureTempDir(); err != nil {
		return nil, err
	}

	reg := registry.New()
	if err := builtin.Register(reg, builtin.Options{SQLitePoolSize: cfg.SQLite.PoolSize}); err != nil {
		return nil, err
	}
	keys := keychain.New(reg)

	var metrics *resolver.Metrics
	var gatherer prometheus.Gatherer
	if cfg.Resolver.Metrics {
		metricsRegistry := prometheus.NewRegistry()
		metrics, err = resolver.NewMetrics(metricsRegistry)
		if err != nil {
			keys.Close()
			return nil, err
		}
		gatherer = metricsRegistry
	}

	res, err := resolver.New(resolver.Options{
		Registry:      reg,
		KeyChain:      keys,
		Logger:        logger,
		TempDir:       cfg.Resolver.TempDir,
		MaxBufferSize: cfg.Resolver.MaxBufferSize,
		Metrics:       metrics,
	})
	if err != nil {
		keys.Close()
		return nil, err
	}

	return &session{
		config:   cfg,
		logger:   logger,
		registry: reg,
		keys:     keys,
		resolver: res,
		gatherer: gatherer,
	}, nil
}

// loadChain reads a chain file, stores its credentials, and returns
// the innermost node.
func (s *session) loadChain(params chainParams) (*pathspec.PathSpec, error) {
	if params.Chain == "" {
		return nil, fmt.Errorf("--chain is required")
	}
	file, err := chainfile.ReadFile(params.Chain)
	if err != nil {
		return nil, err
	}
	nodes, err := file.Build(s.registry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", params.Chain, err)
	}
	if err := file.ApplyCredentials(nodes, s.keys); err != nil {
		return nil, fmt.Errorf("%s: %w", params.Chain, err)
	}

	if layer := params.PromptPassword; layer >= 0 {
		if layer >= len(nodes) {
			return nil, fmt.Errorf("--prompt-password %d: chain has %d layers", layer, len(nodes))
		}
		password, err := cli.ReadPassword(fmt.Sprintf("Password for layer %d (%s): ", layer, nodes[layer].Tag()), false)
		if err != nil {
			return nil, err
		}
		if err := s.keys.SetCredentialBuffer(nodes[layer], vfs.CredentialPassword, password); err != nil {
			return nil, err
		}
	}

	leaf := nodes[len(nodes)-1]
	s.logger.Debug("chain loaded", "chain", leaf.String(), "layers", len(nodes))
	return leaf, nil
}

// Close logs cache metrics when enabled and releases every credential.
func (s *session) Close() error {
	if s.gatherer != nil {
		s.logMetrics()
	}
	if open := s.resolver.Len(); open != 0 {
		s.logger.Warn("file systems still cached at exit", "count", open)
	}
	return s.keys.Close()
}

func (s *session) logMetrics() {
	families, err := s.gatherer.Gather()
	if err != nil {
		s.logger.Warn("gathering metrics failed", "error", err)
		return
	}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			attributes := []any{"metric", family.GetName()}
			for _, label := range metric.GetLabel() {
				attributes = append(attributes, label.GetName(), label.GetValue())
			}
			switch {
			case metric.GetCounter() != nil:
				attributes = append(attributes, "value", metric.GetCounter().GetValue())
			case metric.GetGauge() != nil:
				attributes = append(attributes, "value", metric.GetGauge().GetValue())
			}
			s.logger.Info("resolver metric", attributes...)
		}
	}
}

// withChain opens a session, loads the chain file params names, and
// calls run with its innermost node.
func withChain(params chainParams, command string, run func(*session, *pathspec.PathSpec) error) (err error) {
	s, err := openSession(params.Config, command, params.Chain)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, s.Close())
	}()

	spec, err := s.loadChain(params)
	if err != nil {
		return err
	}
	return run(s, spec)
}
