package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"

	"github.com/doeshing/qa/internal/domain"
	"github.com/doeshing/qa/internal/ports"
)

// SQLiteStore persists records in a single SQLite table. Meta is kept as an
// ordered JSON array so repeated keys survive round trips.
type SQLiteStore struct {
	db   *sql.DB
	path string
	opts options
	mu   sync.Mutex
}

// OpenSQLiteStore creates (or opens) the database at path.
func OpenSQLiteStore(path string, opts ...Option) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return nil, errors.Wrap(err, "create store dir")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	db.SetMaxOpenConns(1)
	s := &SQLiteStore{db: db, path: path, opts: buildOptions(opts)}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY,
		query TEXT NOT NULL,
		command TEXT NOT NULL DEFAULT '',
		exit_code INTEGER,
		result_time TEXT,
		output TEXT,
		meta TEXT NOT NULL DEFAULT '[]'
	);`)
	return errors.Wrap(err, "create records table")
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Location returns the sqlite database path.
func (s *SQLiteStore) Location() string {
	return s.path
}

// Create mints a pending record. An existing row with the same id is replaced.
func (s *SQLiteStore) Create(ctx context.Context, query string) (int64, error) {
	rec := domain.QueryRecord{
		ID:    s.opts.now().Unix(),
		Query: query,
		Meta:  pendingMeta(),
	}
	if err := s.Put(ctx, rec); err != nil {
		return 0, err
	}
	return rec.ID, nil
}

// Put writes a complete record, replacing any existing one.
func (s *SQLiteStore) Put(ctx context.Context, rec domain.QueryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta, err := encodeMeta(rec.Meta)
	if err != nil {
		return err
	}
	var exitCode, resultTime, output interface{}
	if rec.Result != nil {
		exitCode = rec.Result.ExitCode
		resultTime = rec.Result.Time.Format(domain.TimestampFormat)
		output = rec.Result.Output
	}
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO records
		(id, query, command, exit_code, result_time, output, meta)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Query, rec.Command, exitCode, resultTime, output, meta)
	return errors.Wrapf(err, "put record %d", rec.ID)
}

// SetCommand stores the generated command.
func (s *SQLiteStore) SetCommand(ctx context.Context, id int64, command string) error {
	return s.exec(ctx, id, `UPDATE records SET command = ? WHERE id = ?`, command, id)
}

// SetResult replaces the result with a fresh one stamped now.
func (s *SQLiteStore) SetResult(ctx context.Context, id int64, exitCode int, output string) error {
	res := newResult(s.opts.now(), exitCode, output, s.opts.outputLines)
	return s.exec(ctx, id, `UPDATE records SET exit_code = ?, result_time = ?, output = ? WHERE id = ?`,
		res.ExitCode, res.Time.Format(domain.TimestampFormat), res.Output, id)
}

// SetMeta replaces or adds each key.
func (s *SQLiteStore) SetMeta(ctx context.Context, id int64, pairs ...domain.MetaPair) error {
	return s.updateMeta(ctx, id, func(m domain.Meta) domain.Meta { return m.Set(pairs...) })
}

// AppendMeta appends the pairs as-is.
func (s *SQLiteStore) AppendMeta(ctx context.Context, id int64, pairs ...domain.MetaPair) error {
	return s.updateMeta(ctx, id, func(m domain.Meta) domain.Meta { return m.Append(pairs...) })
}

// Get loads a record.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (domain.QueryRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, query, command, exit_code, result_time, output, meta
		FROM records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QueryRecord{}, false, nil
	}
	if err != nil {
		return domain.QueryRecord{}, false, err
	}
	return rec, true, nil
}

// Exists reports whether a row is stored under id.
func (s *SQLiteStore) Exists(ctx context.Context, id int64) bool {
	_, ok, err := s.Get(ctx, id)
	return ok && err == nil
}

// GetMeta returns the latest value of key for id.
func (s *SQLiteStore) GetMeta(ctx context.Context, id int64, key string) (string, bool) {
	rec, ok, err := s.Get(ctx, id)
	if !ok || err != nil {
		return "", false
	}
	return rec.Meta.Get(key)
}

// IDs lists stored ids in ascending order.
func (s *SQLiteStore) IDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM records ORDER BY id ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "list ids")
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// List returns up to limit records, most recent first. limit <= 0 lists all.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]domain.Listing, error) {
	query := `SELECT id, query, command, exit_code, result_time, output, meta FROM records ORDER BY id DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list records")
	}
	defer rows.Close()
	var out []domain.Listing
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			continue
		}
		out = append(out, domain.NewListing(rec))
	}
	return out, rows.Err()
}

// DeleteAll removes the row for id.
func (s *SQLiteStore) DeleteAll(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	return errors.Wrapf(err, "delete record %d", id)
}

func (s *SQLiteStore) exec(ctx context.Context, id int64, stmt string, args ...interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return errors.Wrapf(err, "update record %d", id)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(domain.ErrNotFound, "record %d", id)
	}
	return nil
}

func (s *SQLiteStore) updateMeta(ctx context.Context, id int64, mutate func(domain.Meta) domain.Meta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin meta update")
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	if err := tx.QueryRowContext(ctx, `SELECT meta FROM records WHERE id = ?`, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errors.Wrapf(domain.ErrNotFound, "record %d", id)
		}
		return errors.Wrapf(err, "read meta %d", id)
	}
	meta, err := decodeMeta(raw)
	if err != nil {
		return err
	}
	encoded, err := encodeMeta(mutate(meta))
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE records SET meta = ? WHERE id = ?`, encoded, id); err != nil {
		return errors.Wrapf(err, "write meta %d", id)
	}
	return errors.Wrap(tx.Commit(), "commit meta update")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (domain.QueryRecord, error) {
	var (
		rec        domain.QueryRecord
		exitCode   sql.NullInt64
		resultTime sql.NullString
		output     sql.NullString
		meta       string
	)
	if err := row.Scan(&rec.ID, &rec.Query, &rec.Command, &exitCode, &resultTime, &output, &meta); err != nil {
		return domain.QueryRecord{}, err
	}
	if exitCode.Valid {
		res := &domain.Result{ExitCode: int(exitCode.Int64), Output: output.String}
		if t, err := time.Parse(domain.TimestampFormat, resultTime.String); err == nil {
			res.Time = t
		}
		rec.Result = res
	}
	m, err := decodeMeta(meta)
	if err != nil {
		return domain.QueryRecord{}, err
	}
	rec.Meta = m
	return rec, nil
}

func encodeMeta(m domain.Meta) (string, error) {
	if m == nil {
		m = domain.Meta{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", errors.Wrap(err, "encode meta")
	}
	return string(b), nil
}

func decodeMeta(raw string) (domain.Meta, error) {
	var m domain.Meta
	if raw == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, errors.Wrap(err, "decode meta")
	}
	return m, nil
}

var _ ports.QueryStore = (*SQLiteStore)(nil)
