// Package verdictcache persists reasoner verdicts in SQLite so reruns over the
// same data are deterministic and need no network.
package verdictcache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/agentstation/conflictmap/internal/validation"
	"github.com/agentstation/conflictmap/pkg/conflicts"
	"github.com/agentstation/conflictmap/pkg/errors"
	"github.com/agentstation/conflictmap/pkg/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS verdicts (
	key        TEXT PRIMARY KEY,
	reasoner   TEXT NOT NULL,
	request    TEXT NOT NULL,
	verdict    TEXT NOT NULL,
	created_at DATETIME NOT NULL
);`

// Store is a SQLite-backed verdict table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the cache at path. ":memory:" gives a
// private in-memory cache.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}

	// One connection: writes are serialized by SQLite anyway, and an
	// in-memory database exists only on the connection that created it.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.WrapIO("open", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.WrapIO("initialize", path, err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Key derives the cache key of a request judged by the named reasoner.
func Key(reasoner string, req validation.Request) string {
	data, _ := json.Marshal(req)
	sum := sha256.Sum256(append([]byte(reasoner+"\x00"), data...))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached verdict for key, or errors.ErrCacheMiss.
func (s *Store) Get(ctx context.Context, key string) (conflicts.Verdict, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT verdict FROM verdicts WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return conflicts.Verdict{}, errors.ErrCacheMiss
	}
	if err != nil {
		return conflicts.Verdict{}, err
	}

	var v conflicts.Verdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return conflicts.Verdict{}, errors.WrapParse("json", "", err)
	}
	return v, nil
}

// Put stores a verdict, replacing any previous one for key.
func (s *Store) Put(ctx context.Context, key, reasoner string, req validation.Request, v conflicts.Verdict) error {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return err
	}
	verdictJSON, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO verdicts (key, reasoner, request, verdict, created_at) VALUES (?, ?, ?, ?, ?)`,
		key, reasoner, string(reqJSON), string(verdictJSON), s.now().UTC())
	return err
}

// Len returns the number of cached verdicts.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM verdicts`).Scan(&n)
	return n, err
}

// Reasoner serves verdicts from a Store and asks the wrapped reasoner on a miss.
type Reasoner struct {
	next   validation.Reasoner
	store  *Store
	logger *zerolog.Logger
}

// Wrap returns a caching decorator around next.
func Wrap(next validation.Reasoner, store *Store) *Reasoner {
	return &Reasoner{next: next, store: store}
}

// WithLogger sets the logger for cache failures.
func (r *Reasoner) WithLogger(l *zerolog.Logger) *Reasoner {
	r.logger = l
	return r
}

// Name returns the wrapped reasoner's name.
func (r *Reasoner) Name() string {
	return r.next.Name()
}

// Judge returns a cached verdict when one exists. Cache failures are logged
// and fall through to the wrapped reasoner; only successful verdicts are stored.
func (r *Reasoner) Judge(ctx context.Context, req validation.Request) (conflicts.Verdict, error) {
	logger := r.logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}
	key := Key(r.next.Name(), req)

	v, err := r.store.Get(ctx, key)
	switch {
	case err == nil:
		logger.Debug().Str("key", key[:12]).Msg("Verdict cache hit")
		return v, nil
	case !errors.Is(err, errors.ErrCacheMiss):
		logger.Warn().Err(err).Msg("Verdict cache read failed")
	}

	v, err = r.next.Judge(ctx, req)
	if err != nil {
		return v, err
	}
	if err := r.store.Put(ctx, key, r.next.Name(), req, v); err != nil {
		logger.Warn().Err(err).Msg("Verdict cache write failed")
	}
	return v, nil
}
