package store

import (
	"database/sql"
	"fmt"

	"github.com/promptforge/prompt-extract-mcp/internal/resolve"
)

// UpsertExtraction stores the result for one input file, replacing any
// previous row.
func (s *Store) UpsertExtraction(relPath, hash string, res *resolve.Result) error {
	_, err := s.q.Exec(`
		INSERT INTO inputs (rel_path, hash, extracted_at) VALUES (?, ?, ?)
		ON CONFLICT(rel_path) DO UPDATE SET hash=excluded.hash, extracted_at=excluded.extracted_at`,
		relPath, hash, Now())
	if err != nil {
		return fmt.Errorf("upsert input %s: %w", relPath, err)
	}
	_, err = s.q.Exec(`
		INSERT INTO extractions (rel_path, positive, negative, lane_a, lane_b) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(rel_path) DO UPDATE SET
			positive=excluded.positive, negative=excluded.negative,
			lane_a=excluded.lane_a, lane_b=excluded.lane_b`,
		relPath, res.PositiveText, res.NegativeText, marshalLane(res.LaneA), marshalLane(res.LaneB))
	if err != nil {
		return fmt.Errorf("upsert extraction %s: %w", relPath, err)
	}
	return nil
}

// InputHash returns the stored content hash for an input file.
func (s *Store) InputHash(relPath string) (string, bool) {
	var hash string
	err := s.q.QueryRow(`SELECT hash FROM inputs WHERE rel_path=?`, relPath).Scan(&hash)
	if err != nil {
		return "", false
	}
	return hash, true
}

// AllInputHashes returns rel_path → hash for every stored input.
func (s *Store) AllInputHashes() (map[string]string, error) {
	rows, err := s.q.Query(`SELECT rel_path, hash FROM inputs`)
	if err != nil {
		return nil, fmt.Errorf("list input hashes: %w", err)
	}
	defer rows.Close()
	hashes := make(map[string]string)
	for rows.Next() {
		var rel, hash string
		if err := rows.Scan(&rel, &hash); err != nil {
			return nil, err
		}
		hashes[rel] = hash
	}
	return hashes, rows.Err()
}

// GetExtraction returns the stored result for an input file, or nil if
// none exists.
func (s *Store) GetExtraction(relPath string) (*Extraction, error) {
	row := s.q.QueryRow(`
		SELECT i.rel_path, i.hash, i.extracted_at, e.positive, e.negative, e.lane_a, e.lane_b
		FROM inputs i JOIN extractions e ON e.rel_path = i.rel_path
		WHERE i.rel_path=?`, relPath)
	ex, err := scanExtraction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get extraction %s: %w", relPath, err)
	}
	return ex, nil
}

// ListExtractions returns stored results ordered by recency, newest
// first. limit <= 0 means no limit.
func (s *Store) ListExtractions(limit int) ([]*Extraction, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.q.Query(`
		SELECT i.rel_path, i.hash, i.extracted_at, e.positive, e.negative, e.lane_a, e.lane_b
		FROM inputs i JOIN extractions e ON e.rel_path = i.rel_path
		ORDER BY i.extracted_at DESC, i.rel_path LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list extractions: %w", err)
	}
	defer rows.Close()

	var out []*Extraction
	for rows.Next() {
		ex, err := scanExtraction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

// DeleteInput removes an input and, via cascade, its extraction.
func (s *Store) DeleteInput(relPath string) error {
	if _, err := s.q.Exec(`DELETE FROM inputs WHERE rel_path=?`, relPath); err != nil {
		return fmt.Errorf("delete input %s: %w", relPath, err)
	}
	return nil
}

// CountExtractions reports the number of stored results.
func (s *Store) CountExtractions() (int, error) {
	var n int
	err := s.q.QueryRow(`SELECT COUNT(*) FROM extractions`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExtraction(row rowScanner) (*Extraction, error) {
	var ex Extraction
	var laneA, laneB string
	if err := row.Scan(&ex.RelPath, &ex.Hash, &ex.ExtractedAt, &ex.Positive, &ex.Negative, &laneA, &laneB); err != nil {
		return nil, err
	}
	ex.LaneA = unmarshalLane(laneA)
	ex.LaneB = unmarshalLane(laneB)
	return &ex, nil
}

// Result reconstructs the resolver output held by an extraction.
func (ex *Extraction) Result() *resolve.Result {
	return &resolve.Result{
		PositiveText: ex.Positive,
		NegativeText: ex.Negative,
		LaneA:        ex.LaneA,
		LaneB:        ex.LaneB,
	}
}
