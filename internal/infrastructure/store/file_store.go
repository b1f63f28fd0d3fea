package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/doeshing/qa/internal/domain"
	"github.com/doeshing/qa/internal/ports"
)

const recordExt = ".json"

// FileStore keeps one JSON document per record under dir, named <id>.json.
// Every mutation is a read-modify-write that lands through a temp file and
// rename, so readers never see a torn record.
type FileStore struct {
	dir  string
	opts options
	mu   sync.Mutex
}

// NewFileStore returns a store rooted at dir. The directory is created lazily.
func NewFileStore(dir string, opts ...Option) *FileStore {
	return &FileStore{dir: dir, opts: buildOptions(opts)}
}

// Location exposes the store directory.
func (s *FileStore) Location() string {
	return s.dir
}

// Create mints a pending record for query and persists it.
func (s *FileStore) Create(_ context.Context, query string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := domain.QueryRecord{
		ID:    s.opts.now().Unix(),
		Query: query,
		Meta:  pendingMeta(),
	}
	if err := s.write(rec); err != nil {
		return 0, err
	}
	return rec.ID, nil
}

// Put writes a complete record, replacing any existing one.
func (s *FileStore) Put(_ context.Context, rec domain.QueryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(rec)
}

// SetCommand stores the generated command.
func (s *FileStore) SetCommand(_ context.Context, id int64, command string) error {
	return s.update(id, func(rec *domain.QueryRecord) {
		rec.Command = command
	})
}

// SetResult replaces the record's result with a fresh one stamped now.
func (s *FileStore) SetResult(_ context.Context, id int64, exitCode int, output string) error {
	return s.update(id, func(rec *domain.QueryRecord) {
		rec.Result = newResult(s.opts.now(), exitCode, output, s.opts.outputLines)
	})
}

// SetMeta replaces or adds each key.
func (s *FileStore) SetMeta(_ context.Context, id int64, pairs ...domain.MetaPair) error {
	return s.update(id, func(rec *domain.QueryRecord) {
		rec.Meta = rec.Meta.Set(pairs...)
	})
}

// AppendMeta appends the pairs as-is.
func (s *FileStore) AppendMeta(_ context.Context, id int64, pairs ...domain.MetaPair) error {
	return s.update(id, func(rec *domain.QueryRecord) {
		rec.Meta = rec.Meta.Append(pairs...)
	})
}

// Get loads a record. A missing or unreadable record reports false.
func (s *FileStore) Get(_ context.Context, id int64) (domain.QueryRecord, bool, error) {
	rec, ok := s.read(id)
	return rec, ok, nil
}

// Exists reports whether a readable record is stored under id.
func (s *FileStore) Exists(_ context.Context, id int64) bool {
	_, ok := s.read(id)
	return ok
}

// GetMeta returns the latest value of key for id.
func (s *FileStore) GetMeta(_ context.Context, id int64, key string) (string, bool) {
	rec, ok := s.read(id)
	if !ok {
		return "", false
	}
	return rec.Meta.Get(key)
}

// IDs lists stored ids in ascending order.
func (s *FileStore) IDs(_ context.Context) ([]int64, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read store dir")
	}
	ids := make([]int64, 0, len(files))
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), recordExt) {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSuffix(f.Name(), recordExt), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// List returns up to limit records, most recent first. limit <= 0 lists all.
func (s *FileStore) List(ctx context.Context, limit int) ([]domain.Listing, error) {
	ids, err := s.IDs(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Listing
	for i := len(ids) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		rec, ok := s.read(ids[i])
		if !ok {
			continue
		}
		out = append(out, domain.NewListing(rec))
	}
	return out, nil
}

// DeleteAll removes the record. Deleting a missing record is not an error.
func (s *FileStore) DeleteAll(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.pathFor(id)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "delete record %d", id)
	}
	return nil
}

func (s *FileStore) update(id int64, mutate func(*domain.QueryRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.read(id)
	if !ok {
		return errors.Wrapf(domain.ErrNotFound, "record %d", id)
	}
	mutate(&rec)
	return s.write(rec)
}

func (s *FileStore) read(id int64) (domain.QueryRecord, bool) {
	data, err := os.ReadFile(s.pathFor(id))
	if err != nil {
		return domain.QueryRecord{}, false
	}
	var rec domain.QueryRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.QueryRecord{}, false
	}
	rec.ID = id
	return rec, true
}

func (s *FileStore) write(rec domain.QueryRecord) error {
	if err := os.MkdirAll(s.dir, domain.DirectoryPermissions); err != nil {
		return errors.Wrap(err, "create store dir")
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encode record %d", rec.ID)
	}
	tmp, err := os.CreateTemp(s.dir, ".record-*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp record")
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "write record %d", rec.ID)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "close record %d", rec.ID)
	}
	if err := os.Chmod(tmpPath, domain.FilePermissions); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "chmod record %d", rec.ID)
	}
	if err := os.Rename(tmpPath, s.pathFor(rec.ID)); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "replace record %d", rec.ID)
	}
	return nil
}

func (s *FileStore) pathFor(id int64) string {
	return filepath.Join(s.dir, strconv.FormatInt(id, 10)+recordExt)
}

var _ ports.QueryStore = (*FileStore)(nil)
