package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/trustscope/trustscope/internal/comments"
)

// CommentStore implements comments.Store on Postgres
type CommentStore struct {
	db *DB
}

// Comments returns the comment store backed by db
func (db *DB) Comments() *CommentStore {
	return &CommentStore{db: db}
}

// Add inserts a comment
func (s *CommentStore) Add(ctx context.Context, c *comments.Comment) error {
	query := `
		INSERT INTO comments (
			id, target, user_name, rating, experience, comment, was_scammed, helpful_count, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.pool.Exec(ctx, query,
		c.ID,
		c.Target,
		c.UserName,
		c.Rating,
		c.Experience,
		c.Text,
		c.WasScammed,
		c.HelpfulCount,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// List returns the comments for target, newest first
func (s *CommentStore) List(ctx context.Context, target string) ([]comments.Comment, error) {
	query := `
		SELECT id, target, user_name, rating, experience, comment, was_scammed, helpful_count, created_at
		FROM comments
		WHERE target = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.pool.Query(ctx, query, target)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	out := make([]comments.Comment, 0)
	for rows.Next() {
		var c comments.Comment
		if err := rows.Scan(
			&c.ID, &c.Target, &c.UserName, &c.Rating, &c.Experience,
			&c.Text, &c.WasScammed, &c.HelpfulCount, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan comment row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return out, nil
}

// IncrementHelpful adds one vote in the database so concurrent votes all count
func (s *CommentStore) IncrementHelpful(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
		UPDATE comments
		SET helpful_count = helpful_count + 1
		WHERE id = $1
		RETURNING helpful_count
	`

	var count int
	err := s.db.pool.QueryRow(ctx, query, id).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, comments.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment helpful count: %w", err)
	}
	return count, nil
}
