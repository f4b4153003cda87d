package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/flock"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/Aman-CERP/wikimg/internal/errors"
)

// DefaultBatchSize is the number of puts grouped into one SQLite transaction.
const DefaultBatchSize = 1000

const schema = `CREATE TABLE IF NOT EXISTS kvs (
	kvs_key    TEXT PRIMARY KEY,
	kvs_values TEXT NOT NULL
) WITHOUT ROWID`

// PersistentStore keeps entries in a single SQLite file, one row per key with
// the value set encoded as a JSON array.
//
// Writes are buffered in one open transaction that is committed every
// batchSize puts and on Close. Reads go through that transaction so they see
// buffered writes. An exclusive lock file makes the store single-writer across
// processes.
type PersistentStore struct {
	name      string
	path      string
	batchSize int

	mu      sync.Mutex
	db      *sql.DB
	tx      *sql.Tx
	pending int
	lock    *flock.Flock
	closed  bool
}

// Verify interface implementation at compile time
var _ Store = (*PersistentStore)(nil)

// validateSQLiteIntegrity checks an existing database file before it is opened
// for writing. A missing file is valid.
func validateSQLiteIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// NewPersistentStore opens (or creates) the store file at path, bound to name.
// It fails with ERR_204_STORE_LOCKED when another process holds the store.
func NewPersistentStore(path, name string, batchSize int) (*PersistentStore, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.StorageError(fmt.Sprintf("failed to create directory %s", dir), err).
			WithDetail("store", name)
	}

	lock := flock.New(path + ".lock")
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, errors.StorageError("failed to acquire store lock", err).
			WithDetail("store", name).
			WithDetail("path", path)
	}
	if !acquired {
		return nil, errors.New(errors.ErrCodeStoreLocked,
			fmt.Sprintf("store %s at %s is locked by another process", name, path), nil).
			WithDetail("store", name).
			WithSuggestion("Wait for the other wikimg process to finish, then retry")
	}

	s, err := openPersistent(path, name, batchSize, lock)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	slog.Debug("store_opened",
		slog.String("backend", "disk"),
		slog.String("store", name),
		slog.String("path", path))
	return s, nil
}

func openPersistent(path, name string, batchSize int, lock *flock.Flock) (*PersistentStore, error) {
	if err := validateSQLiteIntegrity(path); err != nil {
		return nil, errors.StorageError(fmt.Sprintf("store %s is unreadable", name), err).
			WithDetail("path", path).
			WithSuggestion("Delete the store file and rebuild the index")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.StorageError("failed to open database", err).WithDetail("path", path)
	}

	// One connection: the buffered write transaction and all reads share it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// DSN params may be ignored by modernc.org/sqlite, so pragmas are set as statements.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -65536",
		"PRAGMA temp_store = MEMORY",
		schema,
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, errors.StorageError("failed to initialize database", err).WithDetail("path", path)
		}
	}

	return &PersistentStore{
		name:      name,
		path:      path,
		batchSize: batchSize,
		db:        db,
		lock:      lock,
	}, nil
}

// Name returns the namespace of the store.
func (s *PersistentStore) Name() string {
	return s.name
}

// Path returns the database file path.
func (s *PersistentStore) Path() string {
	return s.path
}

// Contains reports whether key is present.
func (s *PersistentStore) Contains(ctx context.Context, key string) bool {
	_, err := s.Get(ctx, key)
	return err == nil
}

// Get returns the sorted values of key, including buffered writes.
func (s *PersistentStore) Get(ctx context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	key = norm.NFC.String(key)
	values, found, err := s.read(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.NotFound(s.name, key)
	}
	return values, nil
}

// Put adds value to the set under key.
func (s *PersistentStore) Put(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.begin(); err != nil {
		return err
	}

	key = norm.NFC.String(key)
	values, _, err := s.read(ctx, key)
	if err != nil {
		return err
	}

	i := sort.SearchStrings(values, value)
	if i < len(values) && values[i] == value {
		return nil
	}
	values = append(values, "")
	copy(values[i+1:], values[i:])
	values[i] = value

	encoded, err := json.Marshal(values)
	if err != nil {
		return errors.InternalError("failed to encode values", err)
	}

	_, err = s.tx.ExecContext(ctx,
		`INSERT INTO kvs (kvs_key, kvs_values) VALUES (?, ?)
		 ON CONFLICT(kvs_key) DO UPDATE SET kvs_values = excluded.kvs_values`,
		key, string(encoded))
	if err != nil {
		return s.storageErr("put", key, err)
	}

	return s.countWrite()
}

// Delete removes key and all of its values.
func (s *PersistentStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.begin(); err != nil {
		return err
	}

	key = norm.NFC.String(key)
	res, err := s.tx.ExecContext(ctx, `DELETE FROM kvs WHERE kvs_key = ?`, key)
	if err != nil {
		return s.storageErr("delete", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return s.storageErr("delete", key, err)
	}
	if n == 0 {
		return errors.NotFound(s.name, key)
	}

	return s.countWrite()
}

// Flush commits buffered writes.
func (s *PersistentStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.commit()
}

// Close commits buffered writes, checkpoints the WAL and releases the lock.
func (s *PersistentStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	if err := s.commit(); err != nil {
		firstErr = err
	}
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil && firstErr == nil {
		firstErr = s.storageErr("checkpoint", "", err)
	}
	if err := s.db.Close(); err != nil && firstErr == nil {
		firstErr = s.storageErr("close", "", err)
	}
	if err := s.lock.Unlock(); err != nil && firstErr == nil {
		firstErr = errors.StorageError("failed to release store lock", err).WithDetail("store", s.name)
	}

	slog.Debug("store_closed", slog.String("backend", "disk"), slog.String("store", s.name))
	return firstErr
}

// read loads the value set of an already normalized key.
func (s *PersistentStore) read(ctx context.Context, key string) ([]string, bool, error) {
	const query = `SELECT kvs_values FROM kvs WHERE kvs_key = ?`

	var row *sql.Row
	if s.tx != nil {
		row = s.tx.QueryRowContext(ctx, query, key)
	} else {
		row = s.db.QueryRowContext(ctx, query, key)
	}

	var raw string
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, s.storageErr("get", key, err)
	}

	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, false, s.storageErr("decode", key, err)
	}
	sort.Strings(values)
	return values, true, nil
}

// begin opens the buffered write transaction if none is open. The transaction is
// not tied to a caller context so that one cancelled Put cannot roll back the batch.
func (s *PersistentStore) begin() error {
	if s.tx != nil {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return s.storageErr("begin", "", err)
	}
	s.tx = tx
	return nil
}

func (s *PersistentStore) countWrite() error {
	s.pending++
	if s.pending >= s.batchSize {
		return s.commit()
	}
	return nil
}

func (s *PersistentStore) commit() error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	n := s.pending
	s.pending = 0

	if err := tx.Commit(); err != nil {
		return s.storageErr("commit", "", err)
	}
	slog.Debug("store_batch_committed", slog.String("store", s.name), slog.Int("writes", n))
	return nil
}

func (s *PersistentStore) checkOpen() error {
	if s.closed {
		return errors.StorageError(fmt.Sprintf("store %s is closed", s.name), nil)
	}
	return nil
}

func (s *PersistentStore) storageErr(op, key string, err error) *errors.Error {
	e := errors.StorageError(fmt.Sprintf("%s failed on store %s", op, s.name), err).
		WithDetail("store", s.name)
	if key != "" {
		e = e.WithDetail("key", key)
	}
	return e
}
