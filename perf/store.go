// perf/store.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package perf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotorperf/rotorperf/log"
	"github.com/rotorperf/rotorperf/util"

	"github.com/brunoga/deep"
)

// CacheName is the name of the offline copy of the database in the cache.
const CacheName = "db.msgpack.zst"

// Source provides the raw JSON of the performance database.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) ([]byte, error)

func (f SourceFunc) Fetch(ctx context.Context) ([]byte, error) {
	return f(ctx)
}

// Forgetter is implemented by sources that keep a copy of what they
// fetched. Reload calls Forget before fetching.
type Forgetter interface {
	Forget()
}

// StoreOptions configures a Store. All fields are optional: with no
// Source and no Cache the store always falls back to an empty database.
type StoreOptions struct {
	Source Source
	// Cache, if set, receives a copy of every database successfully
	// loaded from Source and is read when Source fails.
	Cache  *util.Cache
	Logger *log.Logger
}

// Store holds the active performance database. The database is loaded
// lazily and afterwards only ever replaced as a whole, so a calculation
// sees either the old or the new database and never a mixture of the two.
type Store struct {
	db   atomic.Pointer[Database]
	once sync.Once

	// mu serializes fetches from src; last is the document most recently
	// fetched.
	mu   sync.Mutex
	last []byte

	src   Source
	cache *util.Cache
	lg    *log.Logger
}

func NewStore(opts StoreOptions) *Store {
	return &Store{
		src:   opts.Source,
		cache: opts.Cache,
		lg:    opts.Logger,
	}
}

// NewStoreWithDatabase returns a Store whose active database is already
// set to a copy of db; it never consults a source.
func NewStoreWithDatabase(db *Database, lg *log.Logger) *Store {
	s := &Store{lg: lg}
	s.Replace(db)
	return s
}

// LoadOrFallback returns the active database, loading it on the first
// call. Loading tries the Source, then the offline cache, and finally
// settles on EmptyDatabase, so it always returns a usable database; load
// failures are logged rather than returned. A database installed by
// Replace or Import before the first call is kept.
func (s *Store) LoadOrFallback(ctx context.Context) *Database {
	s.once.Do(func() {
		if s.db.Load() != nil {
			return
		}
		s.db.CompareAndSwap(nil, s.load(ctx))
	})
	return s.db.Load()
}

func (s *Store) load(ctx context.Context) *Database {
	if s.src != nil {
		s.mu.Lock()
		db, err := s.fetch(ctx)
		s.mu.Unlock()
		if err == nil {
			s.lg.Info("loaded performance database", slog.Int("tables", db.NumTables()))
			s.warnMalformed(db, "source")
			s.storeCache(db)
			return db
		}
		s.lg.Warn("performance database unavailable from source", slog.Any("error", err))
	}

	if db, err := s.retrieveCache(); err == nil {
		s.lg.Info("using cached performance database", slog.Int("tables", db.NumTables()))
		return db
	} else if s.cache != nil {
		s.lg.Warn("no cached performance database", slog.Any("error", err))
	}

	s.lg.Warn("falling back to an empty performance database")
	return EmptyDatabase()
}

// fetch reads and parses the document from src. s.mu must be held.
func (s *Store) fetch(ctx context.Context) (*Database, error) {
	b, err := s.src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseLoad, err)
	}
	db, err := ParseDatabase(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseLoad, err)
	}
	s.last = b
	return db, nil
}

// Reload fetches the database from the Source again, asking it to drop
// any copy it keeps, and makes the result active. On error the active
// database is unchanged and the error wraps ErrDatabaseLoad.
func (s *Store) Reload(ctx context.Context) (*Database, error) {
	return s.reload(ctx, true)
}

// Refresh is like Reload except that the Source may answer from its own
// cache, and the active database is only replaced when the document
// differs from the one fetched last. A database installed by Import or
// Replace therefore stays active until the source changes.
func (s *Store) Refresh(ctx context.Context) (*Database, error) {
	return s.reload(ctx, false)
}

func (s *Store) reload(ctx context.Context, force bool) (*Database, error) {
	if s.src == nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseLoad, ErrNoSource)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.src.(Forgetter); ok && force {
		f.Forget()
	}
	b, err := s.src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseLoad, err)
	}
	if cur := s.db.Load(); !force && cur != nil && s.last != nil && bytes.Equal(b, s.last) {
		s.lg.Debugf("performance database unchanged (%d bytes)", len(b))
		return cur, nil
	}

	db, err := ParseDatabase(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseLoad, err)
	}
	s.last = b
	s.warnMalformed(db, "source")
	s.storeCache(db)
	s.db.Store(db)
	s.lg.Info("reloaded performance database", slog.Int("tables", db.NumTables()))
	return db, nil
}

// RefreshEvery calls Refresh every interval until ctx is done. Failures
// are logged and leave the active database in place.
func (s *Store) RefreshEvery(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.Refresh(ctx); err != nil {
				s.lg.Warn("unable to refresh performance database", slog.Any("error", err))
			}
		}
	}
}

func (s *Store) storeCache(db *Database) {
	if s.cache == nil {
		return
	}
	if err := s.cache.StoreObject(CacheName, db.wire()); err != nil {
		s.lg.Warn("unable to cache performance database", slog.Any("error", err))
	}
}

func (s *Store) retrieveCache() (*Database, error) {
	if s.cache == nil {
		return nil, errors.New("no cache configured")
	}
	var w wireDatabase
	if _, err := s.cache.RetrieveObject(CacheName, &w); err != nil {
		return nil, err
	}
	return w.database()
}

func (s *Store) warnMalformed(db *Database, origin string) {
	var e util.ErrorLogger
	db.Check(&e)
	for _, msg := range e.Errors() {
		s.lg.Warn("malformed performance table", slog.String("origin", origin), slog.String("problem", msg))
	}
}

// Snapshot returns the active database without triggering a load; it is
// nil if nothing has been loaded or imported yet. The returned database
// must not be modified.
func (s *Store) Snapshot() *Database {
	return s.db.Load()
}

// Replace atomically makes a copy of db the active database. Later
// changes to db by the caller are not seen by the store. A nil db
// installs EmptyDatabase.
func (s *Store) Replace(db *Database) {
	if db == nil {
		db = EmptyDatabase()
	} else {
		c := deep.MustCopy(*db)
		db = &c
	}
	s.db.Store(db)
}

// Import parses r as a database document and, if it parses, replaces the
// active database with it. On error the active database is unchanged and
// the returned error wraps ErrDatabaseImport.
func (s *Store) Import(r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDatabaseImport, err)
	}
	db, err := ParseDatabase(b)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDatabaseImport, err)
	}

	s.warnMalformed(db, "import")
	s.db.Store(db)
	s.lg.Info("imported performance database", slog.Int("tables", db.NumTables()))
	return nil
}

// Export writes the active database as indented JSON, or the empty
// database if nothing has been loaded.
func (s *Store) Export(w io.Writer) error {
	db := s.db.Load()
	if db == nil {
		db = EmptyDatabase()
	}
	return db.WriteJSON(w)
}

// Calculate loads the database if necessary and runs Calculate against
// the current snapshot.
func (s *Store) Calculate(ctx context.Context, req Request) Result {
	return Calculate(req, s.LoadOrFallback(ctx))
}
