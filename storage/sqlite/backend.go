package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/dragnet-io/dragnet/core"
	"github.com/dragnet-io/dragnet/storage"
)

// Backend implements storage.Backend on a SQLite database. It serves as the
// secondary backend: keyword search runs as token matching in SQL, vector
// search as a cosine scan in Go, and hybrid search is not supported natively
// so the router degrades it to keyword search.
type Backend struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ storage.Backend = (*Backend)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
  id INTEGER PRIMARY KEY,
  url TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL DEFAULT '',
  snippet TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  domain TEXT NOT NULL DEFAULT '',
  payload BLOB NOT NULL,
  vector BLOB,
  created_at_unix_ms INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_domain ON documents(domain);
CREATE INDEX IF NOT EXISTS idx_documents_category ON documents(category);

CREATE TABLE IF NOT EXISTS entities (
  kind TEXT NOT NULL,
  name TEXT NOT NULL,
  payload BLOB NOT NULL,
  PRIMARY KEY (kind, name)
);
`

// OpenBackend opens (and if needed creates) a SQLite database at the given
// path. An empty path opens an in-memory database for testing.
func OpenBackend(dbPath string) (*Backend, error) {
	var dsn string
	if dbPath == "" {
		dsn = "file::memory:?_pragma=busy_timeout(5000)"
	} else {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		// modernc.org/sqlite uses _pragma=name(value) syntax
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite handles concurrency better with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Backend{
		db:     db,
		logger: slog.Default().With("component", "sqlite-backend"),
	}, nil
}

// Name identifies this backend in router logs and health snapshots.
func (b *Backend) Name() string {
	return "sqlite"
}

// Capabilities excludes hybrid search, which this backend cannot serve
// natively. The router substitutes keyword search for hybrid requests.
func (b *Backend) Capabilities() storage.CapabilitySet {
	caps := storage.FullCapabilities()
	delete(caps, storage.OpSearchHybrid)
	return caps
}

// Close closes the database connection.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IndexEntity upserts a derived entity record.
func (b *Backend) IndexEntity(ctx context.Context, entity *storage.Entity) error {
	payload, err := storage.MarshalEntity(entity)
	if err != nil {
		return err
	}
	_, err = b.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO entities (kind, name, payload) VALUES (?, ?, ?)
	`, entity.Kind, entity.Name, payload)
	return err
}

// IndexDocument upserts a document keyed by its content ID.
func (b *Backend) IndexDocument(ctx context.Context, doc *core.Document) error {
	payload, err := storage.MarshalDocument(doc)
	if err != nil {
		return err
	}
	_, err = b.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO documents
		  (id, url, title, snippet, category, domain, payload, vector, created_at_unix_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, int64(doc.Id), doc.URL, doc.Title, doc.Snippet, doc.Category,
		core.DomainOf(doc.URL), payload, encodeVector(doc.Vector), doc.CreatedAt.UnixMilli())
	return err
}

// SearchKeyword matches documents whose title or snippet contains the query
// tokens. Documents containing every token as a whole word are preferred,
// then substring matches of every token; when neither exists, the match
// falls back to any-token.
func (b *Backend) SearchKeyword(ctx context.Context, query string, limit int) ([]*core.Document, error) {
	tokens := core.Tokenize(query)
	if len(tokens) == 0 || limit <= 0 {
		return nil, nil
	}

	docs, err := b.queryByTokens(ctx, tokens, " AND ", limit)
	if err != nil {
		return nil, err
	}

	// instr matches substrings, so re-check candidates at word granularity.
	var wholeWord []*core.Document
	for _, doc := range docs {
		if core.ContainsAllQueryWords(doc.Title+" "+doc.Snippet, query) {
			wholeWord = append(wholeWord, doc)
		}
	}
	if len(wholeWord) > 0 {
		return wholeWord, nil
	}
	if len(docs) == 0 && len(tokens) > 1 {
		return b.queryByTokens(ctx, tokens, " OR ", limit)
	}
	return docs, nil
}

func (b *Backend) queryByTokens(ctx context.Context, tokens []string, joiner string, limit int) ([]*core.Document, error) {
	conditions := make([]string, len(tokens))
	args := make([]any, 0, len(tokens)+1)
	for i, token := range tokens {
		conditions[i] = "instr(lower(title || ' ' || snippet), ?) > 0"
		args = append(args, token)
	}
	args = append(args, limit)

	rows, err := b.db.QueryContext(ctx, `
		SELECT payload FROM documents WHERE `+strings.Join(conditions, joiner)+`
		ORDER BY created_at_unix_ms DESC LIMIT ?
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// SearchVector scans stored vectors and returns documents with cosine
// similarity >= minSimilarity, highest first.
func (b *Backend) SearchVector(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.Document, error) {
	if len(vector) == 0 || limit <= 0 {
		return nil, nil
	}

	rows, err := b.db.QueryContext(ctx, `
		SELECT payload, vector FROM documents WHERE vector IS NOT NULL
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type scored struct {
		doc   *core.Document
		score float32
	}
	var results []scored

	for rows.Next() {
		var payload, vecBlob []byte
		if err := rows.Scan(&payload, &vecBlob); err != nil {
			return nil, err
		}
		stored := decodeVector(vecBlob)
		if len(stored) == 0 {
			continue
		}
		similarity := cosineSimilarity(vector, stored)
		if similarity < minSimilarity {
			continue
		}
		doc, err := storage.UnmarshalDocument(payload)
		if err != nil {
			return nil, err
		}
		results = append(results, scored{doc: doc, score: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, c scored) int {
		if a.score > c.score {
			return -1
		}
		if a.score < c.score {
			return 1
		}
		return 0
	})
	if len(results) > limit {
		results = results[:limit]
	}

	docs := make([]*core.Document, len(results))
	for i, r := range results {
		docs[i] = r.doc
	}
	return docs, nil
}

// SearchHybrid is not supported natively. The router degrades hybrid
// requests to keyword search based on the capability set.
func (b *Backend) SearchHybrid(ctx context.Context, query string, vector []float32, limit int) ([]*core.Document, error) {
	return nil, fmt.Errorf("%w: searchHybrid on sqlite", storage.ErrUnsupportedOperation)
}

// TraverseGraph returns documents sharing the seed document's domain.
func (b *Backend) TraverseGraph(ctx context.Context, seed core.ID, depth int) ([]*core.Document, error) {
	if depth <= 0 {
		return nil, nil
	}

	seedDoc, err := b.GetByID(ctx, seed)
	if err != nil {
		return nil, err
	}
	domain := core.DomainOf(seedDoc.URL)
	if domain == "" {
		return nil, nil
	}

	rows, err := b.db.QueryContext(ctx, `
		SELECT payload FROM documents WHERE domain = ? AND id != ?
	`, domain, int64(seed))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// GetByID retrieves a single document.
func (b *Backend) GetByID(ctx context.Context, id core.ID) (*core.Document, error) {
	var payload []byte
	err := b.db.QueryRowContext(ctx, `
		SELECT payload FROM documents WHERE id = ?
	`, int64(id)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return storage.UnmarshalDocument(payload)
}

// DeleteByID removes a document.
func (b *Backend) DeleteByID(ctx context.Context, id core.ID) error {
	result, err := b.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, int64(id))
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Count returns the number of stored documents. Serves as the health probe.
func (b *Backend) Count(ctx context.Context) (int64, error) {
	var count int64
	err := b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func scanDocuments(rows *sql.Rows) ([]*core.Document, error) {
	var docs []*core.Document
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		doc, err := storage.UnmarshalDocument(payload)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// encodeVector packs float32 components as little-endian bytes, nil for an
// empty vector so the column stays NULL.
func encodeVector(vector []float32) []byte {
	if len(vector) == 0 {
		return nil
	}
	buf := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(data []byte) []float32 {
	if len(data) < 4 {
		return nil
	}
	vector := make([]float32, len(data)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vector
}

func cosineSimilarity(a, b []float32) float32 {
	minLen := min(len(a), len(b))
	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
