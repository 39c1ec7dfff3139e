package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/mohammad-safakhou/askcampus/internal/helpers"
	"github.com/mohammad-safakhou/askcampus/models"
)

type PostgresStore struct {
	DB *sql.DB
}

// NewPostgresWithDSN opens and pings a Postgres connection.
func NewPostgresWithDSN(ctx context.Context, dsn string, timeout time.Duration) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	pingCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{DB: db}, nil
}

const upsertRunSQL = `
INSERT INTO research_runs (id, query, state, final_answer, duplicates_removed, config, payload, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  state = EXCLUDED.state,
  final_answer = EXCLUDED.final_answer,
  duplicates_removed = EXCLUDED.duplicates_removed,
  config = EXCLUDED.config,
  payload = EXCLUDED.payload;
`

const upsertSourceSQL = `
INSERT INTO research_sources (run_id, fingerprint, position, url, title, relevance_score, word_count)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (run_id, fingerprint) DO UPDATE SET
  position = EXCLUDED.position,
  title = EXCLUDED.title,
  relevance_score = EXCLUDED.relevance_score,
  word_count = EXCLUDED.word_count;
`

// Save writes the run and its cited sources in one transaction.
func (s *PostgresStore) Save(ctx context.Context, result models.ResearchResult) (map[string]string, error) {
	if result.ID == "" {
		return nil, fmt.Errorf("result id must be provided")
	}
	cfgJSON, err := json.Marshal(result.Config)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, upsertRunSQL,
		result.ID, result.Query, string(result.State), result.FinalAnswer,
		result.DuplicatesRemoved, cfgJSON, payload, result.Timestamp.UTC()); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	for i, src := range result.Sources {
		if _, err := tx.ExecContext(ctx, upsertSourceSQL,
			result.ID, helpers.URLFingerprint(src.URL), i+1, src.URL, src.Title,
			src.RelevanceScore, src.WordCount); err != nil {
			return nil, fmt.Errorf("insert source: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return map[string]string{"postgres": "research_runs/" + result.ID}, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (models.ResearchResult, error) {
	var payload []byte
	err := s.DB.QueryRowContext(ctx, `SELECT payload FROM research_runs WHERE id=$1`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ResearchResult{}, ErrNotFound
	}
	if err != nil {
		return models.ResearchResult{}, err
	}
	var r models.ResearchResult
	if err := json.Unmarshal(payload, &r); err != nil {
		return models.ResearchResult{}, fmt.Errorf("decode run %s: %w", id, err)
	}
	return r, nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]models.ResearchResult, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT payload FROM research_runs ORDER BY created_at DESC LIMIT $1`, listLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ResearchResult{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var r models.ResearchResult
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error { return s.DB.Close() }
