package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/trustscope/trustscope/internal/analysis"
	"github.com/trustscope/trustscope/internal/score"
)

// AnalysisStore implements analysis.Store on Postgres. The full result is kept
// as JSONB next to a few columns for querying.
type AnalysisStore struct {
	db *DB
}

// Analyses returns the analysis store backed by db
func (db *DB) Analyses() *AnalysisStore {
	return &AnalysisStore{db: db}
}

// Save inserts an analysis record
func (s *AnalysisStore) Save(ctx context.Context, rec *analysis.Record) error {
	result, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	query := `
		INSERT INTO analyses (id, target, domain, kind, score, verdict, result, analyzed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = s.db.pool.Exec(ctx, query,
		rec.ID,
		rec.Result.Target,
		rec.Result.Domain,
		string(rec.Result.Kind),
		rec.Result.Score,
		rec.Result.Verdict,
		result,
		rec.AnalyzedAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// Get loads an analysis record by id
func (s *AnalysisStore) Get(ctx context.Context, id uuid.UUID) (*analysis.Record, error) {
	query := `
		SELECT id, result, analyzed_at
		FROM analyses
		WHERE id = $1
	`

	rec := &analysis.Record{}
	var raw []byte
	err := s.db.pool.QueryRow(ctx, query, id).Scan(&rec.ID, &raw, &rec.AnalyzedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, analysis.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}

	rec.Result = &score.Result{}
	if err := json.Unmarshal(raw, rec.Result); err != nil {
		return nil, fmt.Errorf("decode analysis result: %w", err)
	}
	return rec, nil
}
