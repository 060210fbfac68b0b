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

// Package postgres mirrors the collected datasets into PostgreSQL.
//
// The schema is managed by goose migrations embedded in the binary. Rows are
// upserted by identity, so rerunning a collection refreshes existing rows
// instead of duplicating them.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/sirseerhq/prharvest/internal/dataset"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store writes datasets to a PostgreSQL database.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open connects to the database at dsn and verifies the connection.
func Open(ctx context.Context, dsn string, logger zerolog.Logger) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	logger.Debug().Msg("connected to database")
	return &Store{db: db, logger: logger}, nil
}

// Migrate applies every pending migration.
func (s *Store) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	s.logger.Debug().Msg("database migrations applied")
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

const upsertRepository = `
INSERT INTO repositories (owner, name, stars, url, created_at, age_years, run_id, collected_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
ON CONFLICT (owner, name) DO UPDATE SET
    stars        = EXCLUDED.stars,
    url          = EXCLUDED.url,
    created_at   = EXCLUDED.created_at,
    age_years    = EXCLUDED.age_years,
    run_id       = EXCLUDED.run_id,
    collected_at = EXCLUDED.collected_at`

// SaveRepositories upserts the repository dataset in one transaction.
func (s *Store) SaveRepositories(ctx context.Context, runID string, repos []dataset.Repository) error {
	return s.inTx(ctx, "repositories", upsertRepository, len(repos), func(stmt *sql.Stmt, i int) error {
		r := repos[i]
		_, err := stmt.ExecContext(ctx, r.Owner, r.Name, r.Stars, r.URL, nullTime(r.CreatedAt), r.AgeYears, runID)
		if err != nil {
			return fmt.Errorf("upsert repository %s: %w", r.Key(), err)
		}
		return nil
	})
}

const upsertPullRequest = `
INSERT INTO pull_requests (
    repo_owner, repo_name, number, title, state, pr_status,
    created_at, closed_at, merged_at, analysis_time_hours,
    files_changed, additions, deletions, total_lines_changed, lines_per_file,
    description_length, participants, comments, reviews, run_id, collected_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, now())
ON CONFLICT (repo_owner, repo_name, number) DO UPDATE SET
    title               = EXCLUDED.title,
    state               = EXCLUDED.state,
    pr_status           = EXCLUDED.pr_status,
    created_at          = EXCLUDED.created_at,
    closed_at           = EXCLUDED.closed_at,
    merged_at           = EXCLUDED.merged_at,
    analysis_time_hours = EXCLUDED.analysis_time_hours,
    files_changed       = EXCLUDED.files_changed,
    additions           = EXCLUDED.additions,
    deletions           = EXCLUDED.deletions,
    total_lines_changed = EXCLUDED.total_lines_changed,
    lines_per_file      = EXCLUDED.lines_per_file,
    description_length  = EXCLUDED.description_length,
    participants        = EXCLUDED.participants,
    comments            = EXCLUDED.comments,
    reviews             = EXCLUDED.reviews,
    run_id              = EXCLUDED.run_id,
    collected_at        = EXCLUDED.collected_at`

// SavePullRequests upserts the pull request dataset in one transaction.
func (s *Store) SavePullRequests(ctx context.Context, runID string, prs []dataset.PullRequest) error {
	return s.inTx(ctx, "pull_requests", upsertPullRequest, len(prs), func(stmt *sql.Stmt, i int) error {
		p := prs[i]
		_, err := stmt.ExecContext(ctx,
			p.RepoOwner, p.RepoName, p.Number, p.Title, p.State, p.PRStatus,
			p.CreatedAt, p.ClosedAt, p.MergedAt, p.AnalysisTimeHours,
			p.FilesChanged, p.Additions, p.Deletions, p.TotalLinesChanged, p.LinesPerFile,
			p.DescriptionLength, p.Participants, p.Comments, p.Reviews, runID,
		)
		if err != nil {
			return fmt.Errorf("upsert pull request %s/%s#%d: %w", p.RepoOwner, p.RepoName, p.Number, err)
		}
		return nil
	})
}

// inTx prepares query once and executes it n times in a single transaction.
func (s *Store) inTx(ctx context.Context, table, query string, n int, exec func(stmt *sql.Stmt, i int) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s tx: %w", table, err)
	}
	defer func() {
		// #nosec G104 -- rollback after commit is a no-op
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare %s upsert: %w", table, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if err := exec(stmt, i); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s tx: %w", table, err)
	}

	s.logger.Info().Str("table", table).Int("rows", n).Msg("dataset stored")
	return nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
