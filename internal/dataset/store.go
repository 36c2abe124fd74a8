package dataset

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store persists the canonical dataset in SQLite.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates or opens the dataset store at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &Store{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Replace atomically swaps the stored dataset for the given documents.
// A build replaces the previous snapshot wholesale; the store never
// holds a partial batch.
func (s *Store) Replace(docs []Document) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM documents"); err != nil {
		return fmt.Errorf("clearing documents: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO documents (
		id, title, authority, country, region, topic, document_type,
		date, year, month, sentiment, sentiment_score, risk_level,
		risk_score, document_length, confidence_score, status, content,
		url, language, tags
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		_, err := stmt.Exec(
			d.ID, d.Title, d.Authority, d.Country, d.Region, d.Topic,
			d.DocumentType, d.Date, d.Year, d.Month, d.Sentiment,
			d.SentimentScore, d.RiskLevel, d.RiskScore, d.DocumentLength,
			d.ConfidenceScore, d.Status, d.Content, d.URL, d.Language, d.Tags,
		)
		if err != nil {
			return fmt.Errorf("inserting document %d: %w", d.ID, err)
		}
	}

	return tx.Commit()
}

// LoadSnapshot reads the full dataset, sorted ascending by id.
func (s *Store) LoadSnapshot() (*Snapshot, error) {
	rows, err := s.conn.Query(`SELECT
		id, title, authority, country, region, topic, document_type,
		date, year, month, sentiment, sentiment_score, risk_level,
		risk_score, document_length, confidence_score, status, content,
		url, language, tags
		FROM documents ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(
			&d.ID, &d.Title, &d.Authority, &d.Country, &d.Region, &d.Topic,
			&d.DocumentType, &d.Date, &d.Year, &d.Month, &d.Sentiment,
			&d.SentimentScore, &d.RiskLevel, &d.RiskScore, &d.DocumentLength,
			&d.ConfidenceScore, &d.Status, &d.Content, &d.URL, &d.Language, &d.Tags,
		); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return NewSnapshot(docs), nil
}

// Stats contains aggregate dataset statistics.
type Stats struct {
	TotalDocuments int    `json:"total_documents"`
	Countries      int    `json:"countries"`
	Authorities    int    `json:"authorities"`
	WithFulltext   int    `json:"with_fulltext"`
	WithDate       int    `json:"with_date"`
	EarliestDate   string `json:"earliest_date,omitempty"`
	LatestDate     string `json:"latest_date,omitempty"`
}

// GetStats computes summary statistics over the stored dataset.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}
	row := s.conn.QueryRow(`SELECT
		COUNT(*),
		COUNT(DISTINCT CASE WHEN country != '' THEN country END),
		COUNT(DISTINCT CASE WHEN authority != '' THEN authority END),
		SUM(CASE WHEN document_length > 0 THEN 1 ELSE 0 END),
		SUM(CASE WHEN date != '' THEN 1 ELSE 0 END),
		COALESCE(MIN(CASE WHEN date != '' THEN date END), ''),
		COALESCE(MAX(date), '')
		FROM documents`)
	var withFulltext, withDate sql.NullInt64
	if err := row.Scan(
		&stats.TotalDocuments, &stats.Countries, &stats.Authorities,
		&withFulltext, &withDate, &stats.EarliestDate, &stats.LatestDate,
	); err != nil {
		return nil, fmt.Errorf("computing stats: %w", err)
	}
	stats.WithFulltext = int(withFulltext.Int64)
	stats.WithDate = int(withDate.Int64)
	return stats, nil
}
