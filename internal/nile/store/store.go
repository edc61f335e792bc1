// Package store persists contracts, scans, and score history in Postgres.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nile-security/nile/internal/nile/score"
)

// ErrNotFound is returned when a contract has no stored score.
var ErrNotFound = errors.New("not found")

// Store wraps a Postgres connection pool.
type Store struct {
	Pool *pgxpool.Pool
}

// Connect opens a pool against url and verifies connectivity.
func Connect(ctx context.Context, url string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() { s.Pool.Close() }

// ScoreRecord is one stored score evaluation.
type ScoreRecord struct {
	ID       string       `json:"id"`
	Address  string       `json:"address"`
	ScanID   string       `json:"scan_id,omitempty"`
	Result   score.Result `json:"result"`
	ScoredAt time.Time    `json:"scored_at"`
}

// UpsertContract registers a contract, keeping any existing display name
// unless a non-empty one is given.
func (s *Store) UpsertContract(ctx context.Context, address, name string) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO contracts (address, name)
		VALUES ($1, NULLIF($2, ''))
		ON CONFLICT (address) DO UPDATE
		SET name = COALESCE(NULLIF(EXCLUDED.name, ''), contracts.name)
	`, strings.ToLower(address), name)
	return err
}

// InsertScan records a completed scan for a contract.
func (s *Store) InsertScan(ctx context.Context, scanID, address string) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO scans (id, contract_address)
		VALUES ($1, $2)
	`, scanID, strings.ToLower(address))
	return err
}

// InsertScore stores a score evaluation keyed by contract and timestamp.
func (s *Store) InsertScore(ctx context.Context, rec ScoreRecord) error {
	details, err := json.Marshal(rec.Result.Details)
	if err != nil {
		return fmt.Errorf("encoding details: %w", err)
	}

	_, err = s.Pool.Exec(ctx, `
		INSERT INTO nile_scores (
			id, contract_address, scan_id,
			total_score, name_score, image_score, likeness_score, essence_score,
			grade, details, scored_at
		)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		rec.ID, strings.ToLower(rec.Address), rec.ScanID,
		rec.Result.TotalScore, rec.Result.NameScore, rec.Result.ImageScore,
		rec.Result.LikenessScore, rec.Result.EssenceScore,
		rec.Result.Grade, details, rec.ScoredAt,
	)
	return err
}

// LatestScore returns the most recent score for a contract.
func (s *Store) LatestScore(ctx context.Context, address string) (ScoreRecord, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, contract_address, COALESCE(scan_id, ''),
		       total_score, name_score, image_score, likeness_score, essence_score,
		       grade, details, scored_at
		FROM nile_scores
		WHERE contract_address = $1
		ORDER BY scored_at DESC
		LIMIT 1
	`, strings.ToLower(address))

	rec, err := scanScoreRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ScoreRecord{}, ErrNotFound
	}
	return rec, err
}

// History returns up to limit scores for a contract, newest first.
func (s *Store) History(ctx context.Context, address string, limit int) ([]ScoreRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, contract_address, COALESCE(scan_id, ''),
		       total_score, name_score, image_score, likeness_score, essence_score,
		       grade, details, scored_at
		FROM nile_scores
		WHERE contract_address = $1
		ORDER BY scored_at DESC
		LIMIT $2
	`, strings.ToLower(address), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []ScoreRecord
	for rows.Next() {
		rec, err := scanScoreRow(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// LatestPerContract returns the newest score for every contract, used to
// warm the leaderboard index on startup.
func (s *Store) LatestPerContract(ctx context.Context) ([]ScoreRecord, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT DISTINCT ON (contract_address)
		       id, contract_address, COALESCE(scan_id, ''),
		       total_score, name_score, image_score, likeness_score, essence_score,
		       grade, details, scored_at
		FROM nile_scores
		ORDER BY contract_address, scored_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []ScoreRecord
	for rows.Next() {
		rec, err := scanScoreRow(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// ContractName returns the stored display name for an address, empty when unknown.
func (s *Store) ContractName(ctx context.Context, address string) (string, error) {
	var name *string
	err := s.Pool.QueryRow(ctx,
		`SELECT name FROM contracts WHERE address = $1`, strings.ToLower(address),
	).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if name == nil {
		return "", nil
	}
	return *name, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScoreRow(row rowScanner) (ScoreRecord, error) {
	var rec ScoreRecord
	var details []byte
	err := row.Scan(
		&rec.ID, &rec.Address, &rec.ScanID,
		&rec.Result.TotalScore, &rec.Result.NameScore, &rec.Result.ImageScore,
		&rec.Result.LikenessScore, &rec.Result.EssenceScore,
		&rec.Result.Grade, &details, &rec.ScoredAt,
	)
	if err != nil {
		return ScoreRecord{}, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &rec.Result.Details); err != nil {
			return ScoreRecord{}, fmt.Errorf("decoding details: %w", err)
		}
	}
	return rec, nil
}
