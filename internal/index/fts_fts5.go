//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS posts_fts USING fts5(
			id UNINDEXED,
			title,
			preview,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, id, title, preview, body string) error {
	if err := ftsDelete(tx, id); err != nil {
		return err
	}
	_, err := tx.Exec(`INSERT INTO posts_fts (id, title, preview, body) VALUES (?, ?, ?, ?)`,
		id, title, preview, body)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, id string) error {
	if _, err := tx.Exec(`DELETE FROM posts_fts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: delete fts: %w", err)
	}
	return nil
}

// matchExpr quotes every term of query so FTS5 operators in user input are
// treated as text. Terms are ANDed.
func matchExpr(query string) string {
	terms := strings.Fields(query)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

// Search runs an FTS5 query and returns hits ranked by relevance, with a
// highlighted body snippet.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	expr := matchExpr(query)
	if expr == "" {
		return []SearchResult{}, nil
	}
	rows, err := db.conn.Query(`
		SELECT posts_fts.id,
		       posts_fts.title,
		       posts.date,
		       snippet(posts_fts, 3, '<b>', '</b>', '...', 64)
		FROM posts_fts
		JOIN posts ON posts.id = posts_fts.id
		WHERE posts_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, expr, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanResults(rows)
}
