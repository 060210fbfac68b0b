// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"

	"github.com/sirseerhq/prharvest/internal/collector"
	"github.com/sirseerhq/prharvest/internal/config"
	apperrors "github.com/sirseerhq/prharvest/internal/errors"
	"github.com/sirseerhq/prharvest/internal/github"
	"github.com/sirseerhq/prharvest/internal/metadata"
	"github.com/sirseerhq/prharvest/internal/store/postgres"
	"github.com/sirseerhq/prharvest/pkg/version"
)

// session is what every command needs after flags are parsed.
type session struct {
	cfg    *config.Config
	logger zerolog.Logger
	quiet  bool
}

// loadConfig loads the configuration, then lets apply override it from
// command flags before it is validated.
func loadConfig(g *globalFlags, apply func(*config.Config)) (*config.Config, error) {
	cfg, err := config.LoadConfig(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidConfig, err)
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if apply != nil {
		apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newSession(g *globalFlags, stderr io.Writer, apply func(*config.Config)) (*session, error) {
	cfg, err := loadConfig(g, apply)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.Log, stderr)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, quiet: g.quiet}, nil
}

// newLogger builds the diagnostic logger: human readable on a terminal,
// JSON when log.format is json.
func newLogger(cfg config.LogConfig, w io.Writer) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("%w: invalid log level %q", apperrors.ErrInvalidConfig, cfg.Level)
		}
		level = parsed
	}

	if strings.EqualFold(cfg.Format, "json") {
		return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
	}
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	return zerolog.New(console).Level(level).With().Timestamp().Logger(), nil
}

// newClient resolves the credential and builds the GitHub client. A missing
// token fails before any request is sent.
func (rt *session) newClient(flagToken string) (github.Client, error) {
	token := rt.cfg.Token(flagToken)
	if token == "" {
		return nil, fmt.Errorf("%w: set %s or use --token", apperrors.ErrMissingToken, rt.cfg.GitHub.TokenEnv)
	}
	return github.NewGraphQLClient(token, rt.cfg.GitHub.GraphQLEndpoint, github.WithLogger(rt.logger)), nil
}

func (rt *session) progress() collector.Progress {
	if rt.quiet {
		return collector.NopProgress{}
	}
	return &ptermProgress{}
}

// saveMetadata writes the run metadata next to output when enabled.
func (rt *session) saveMetadata(tracker *metadata.Tracker, command, output string, params metadata.RunParams, resumed bool) {
	if !rt.cfg.Output.Metadata {
		return
	}
	params.Output = output
	params.Format = rt.cfg.Output.Format
	params.PageDelay = rt.cfg.Fetch.PageDelay.String()
	params.RetryDelay = rt.cfg.Fetch.RetryDelay.String()
	params.MaxAttempts = rt.cfg.Fetch.MaxAttempts

	md := tracker.GenerateMetadata(version.Version, command, params, resumed)
	path := metadata.MetadataPath(output)
	if err := metadata.SaveMetadata(md, path); err != nil {
		rt.logger.Warn().Err(err).Str("path", path).Msg("failed to save run metadata")
		return
	}
	rt.logger.Debug().Str("path", path).Msg("run metadata saved")
}

// withStore runs fn against the Postgres sink when one is configured.
func (rt *session) withStore(ctx context.Context, fn func(*postgres.Store) error) error {
	dsn := rt.cfg.Store.PostgresDSN
	if dsn == "" {
		return nil
	}

	store, err := postgres.Open(ctx, dsn, rt.logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}
	return fn(store)
}

// ptermProgress prints collection progress for a human at a terminal.
type ptermProgress struct {
	mu sync.Mutex
}

func (p *ptermProgress) Collected(label string, n, max int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pterm.Info.Printfln("%s: collected %d so far (max %d)", label, n, max)
}

func (p *ptermProgress) RepositoryStarted(index, total int, key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pterm.Info.Printfln("[%d/%d] %s", index, total, key)
}

func (p *ptermProgress) RepositorySkipped(key string, count, threshold int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		pterm.Warning.Printfln("%s: threshold check failed, skipping: %v", key, err)
		return
	}
	pterm.Warning.Printfln("%s: %d merged or closed pull requests, below %d, skipping", key, count, threshold)
}

func (p *ptermProgress) RepositoryDone(key string, accepted, fetched int, resumed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if resumed {
		pterm.Success.Printfln("%s: %d pull requests restored from checkpoint", key, accepted)
		return
	}
	pterm.Success.Printfln("%s: %d of %d pull requests accepted", key, accepted, fetched)
}
