// Package history archives finished matches to SQLite. It is an append-only
// results log; live room state never touches the database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/chordplay/chordquiz/internal/game"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record writes one finished match and its final per-player scores in a
// single transaction.
func (s *Store) Record(ctx context.Context, m game.MatchResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var matchID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO matches (code, number_of_chords, number_of_minutes, level_of_difficulty, started, reason, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, m.Code, m.NumberOfChords, m.NumberOfMinutes, m.LevelOfDifficulty, m.Started, m.Reason,
		m.EndedAt.Format(time.RFC3339Nano)).Scan(&matchID)
	if err != nil {
		return fmt.Errorf("inserting match: %w", err)
	}

	for _, score := range m.Scores {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO match_scores (match_id, username, profile_image_url, score)
			VALUES (?, ?, ?, ?)
		`, matchID, score.Username, score.ProfileImageURL, score.Score)
		if err != nil {
			return fmt.Errorf("inserting score for %q: %w", score.Username, err)
		}
	}

	return tx.Commit()
}

// MatchSummary is one archived match with its player count.
type MatchSummary struct {
	Code              string
	LevelOfDifficulty string
	Reason            string
	Players           int
	EndedAt           string
}

// Recent returns the most recently finished matches, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]MatchSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.code, m.level_of_difficulty, m.reason, COUNT(ms.id), m.ended_at
		FROM matches m
		LEFT JOIN match_scores ms ON ms.match_id = m.id
		GROUP BY m.id
		ORDER BY m.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	defer rows.Close()

	var out []MatchSummary
	for rows.Next() {
		var ms MatchSummary
		if err := rows.Scan(&ms.Code, &ms.LevelOfDifficulty, &ms.Reason, &ms.Players, &ms.EndedAt); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		out = append(out, ms)
	}
	return out, rows.Err()
}
