package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/folio/internal/models"
)

// PostRow represents a row in the posts table.
type PostRow struct {
	ID        string
	Title     string
	Date      string
	Preview   string
	Checksum  string
	IndexedAt time.Time
}

// RowFromPost builds the index row for p.
func RowFromPost(p *models.Post) PostRow {
	return PostRow{
		ID:        p.ID,
		Title:     p.Title,
		Date:      p.Date.String(),
		Preview:   p.Preview,
		Checksum:  p.Checksum,
		IndexedAt: time.Now().UTC(),
	}
}

// SearchResult is one search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Date    string `json:"date,omitempty"`
	Snippet string `json:"snippet"`
}

// UpsertPost inserts or replaces a post and its full-text entry in one
// transaction.
func (db *DB) UpsertPost(p PostRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if p.IndexedAt.IsZero() {
		p.IndexedAt = time.Now().UTC()
	}
	_, err = tx.Exec(`
		INSERT INTO posts (id, title, date, preview, checksum, body, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title      = excluded.title,
			date       = excluded.date,
			preview    = excluded.preview,
			checksum   = excluded.checksum,
			body       = excluded.body,
			indexed_at = excluded.indexed_at
	`, p.ID, p.Title, p.Date, p.Preview, p.Checksum, body, p.IndexedAt)
	if err != nil {
		return fmt.Errorf("index: upsert post: %w", err)
	}

	if err := ftsUpsert(tx, p.ID, p.Title, p.Preview, body); err != nil {
		return err
	}
	return tx.Commit()
}

// DeletePost removes a post and its full-text entry.
func (db *DB) DeletePost(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM posts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: delete post: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum of a post, or "" when it is not
// indexed.
func (db *DB) GetChecksum(id string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM posts WHERE id = ?`, id).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns the checksum of every indexed post keyed by ID.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, checksum FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, cs string
		if err := rows.Scan(&id, &cs); err != nil {
			return nil, err
		}
		out[id] = cs
	}
	return out, rows.Err()
}

// Count returns the number of indexed posts.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	defer rows.Close()
	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Title, &r.Date, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
