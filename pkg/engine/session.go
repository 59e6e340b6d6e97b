// Package engine owns one loaded corpus session: the dataset, its derived
// views, the memoization caches, and the incrementally built search index.
// All query operations go through a Session.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Sumatoshi-tech/specscope/pkg/alg/levenshtein"
	"github.com/Sumatoshi-tech/specscope/pkg/alg/lru"
	"github.com/Sumatoshi-tech/specscope/pkg/dataset"
	"github.com/Sumatoshi-tech/specscope/pkg/patch"
	"github.com/Sumatoshi-tech/specscope/pkg/sched"
	"github.com/Sumatoshi-tech/specscope/pkg/search"
)

// Sentinel errors.
var (
	ErrNoDataset        = errors.New("no dataset loaded")
	ErrUnknownCommit    = errors.New("unknown commit")
	ErrAmbiguousCommit  = errors.New("ambiguous commit prefix")
	ErrUnknownFile      = errors.New("file not present at commit")
	ErrIndexSuperseded  = errors.New("index superseded by reload")
	ErrInvalidSearchArg = errors.New("invalid search scope")
)

// Cache names reported to the Recorder.
const (
	CachePatches   = "patches"
	CacheDocuments = "documents"
)

// Recorder receives engine activity for metrics. Implementations must be
// safe for concurrent use.
type Recorder interface {
	CacheAccess(ctx context.Context, cache string, hit bool)
	DocumentIndexed(ctx context.Context, indexed bool)
	Compared(ctx context.Context, mode string)
}

type nopRecorder struct{}

func (nopRecorder) CacheAccess(context.Context, string, bool) {}
func (nopRecorder) DocumentIndexed(context.Context, bool)     {}
func (nopRecorder) Compared(context.Context, string)          {}

// Config holds the session's tunables.
type Config struct {
	BatchSize            int
	PatchCacheEntries    int
	DocumentCacheEntries int
	DocumentMaxBytes     int64
	DiffMaxLines         int
	DistanceSlack        int
	DistanceFactor       int
	SearchLimit          int
	SnippetRadius        int
}

// DefaultConfig returns the built-in tunables.
func DefaultConfig() Config {
	return Config{
		BatchSize:            25,
		PatchCacheEntries:    64,
		DocumentCacheEntries: 32,
		DocumentMaxBytes:     64 << 20,
		DiffMaxLines:         8000,
		DistanceSlack:        levenshtein.DefaultSlack,
		DistanceFactor:       levenshtein.DefaultFactor,
		SearchLimit:          50,
		SnippetRadius:        search.DefaultSnippetRadius,
	}
}

// Option configures a Session.
type Option func(*Session)

// WithConfig overrides the tunables.
func WithConfig(cfg Config) Option {
	return func(s *Session) { s.cfg = cfg }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.baseLogger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		if r != nil {
			s.recorder = r
		}
	}
}

type docKey struct {
	sha   string
	scope string
}

// Session is a loaded dataset plus all state derived from it. Methods are
// safe for concurrent use; they serialize on one mutex.
type Session struct {
	mu sync.Mutex

	cfg        Config
	baseLogger *slog.Logger
	logger     *slog.Logger
	recorder   Recorder

	id      string
	ds      *dataset.Dataset
	views   []dataset.View
	bySHA   map[string]int
	byShort map[string]int
	patches *lru.Cache[string, []patch.File]
	docs    *lru.Cache[docKey, string]
	index   *search.Index
	dist    levenshtein.Context
}

// Open builds a session over ds.
func Open(ds *dataset.Dataset, opts ...Option) (*Session, error) {
	s := &Session{
		cfg:        DefaultConfig(),
		baseLogger: slog.Default(),
		recorder:   nopRecorder{},
	}

	for _, opt := range opts {
		opt(s)
	}

	if err := s.load(ds); err != nil {
		return nil, err
	}

	return s, nil
}

// OpenFile loads the dataset at path and opens a session over it.
func OpenFile(path string, opts ...Option) (*Session, error) {
	ds, err := dataset.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	return Open(ds, opts...)
}

// Reload discards every derived structure, including cached entries and the
// search index, and rebuilds them over ds. Cache counters carry over. An index build running against the old
// data stops at its next step.
func (s *Session) Reload(ds *dataset.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ds)
}

// ReloadFile reloads from a dataset file. On failure the current data stays.
func (s *Session) ReloadFile(path string) error {
	ds, err := dataset.LoadFile(path)
	if err != nil {
		return fmt.Errorf("reload session: %w", err)
	}

	return s.Reload(ds)
}

func (s *Session) load(ds *dataset.Dataset) error {
	if ds == nil {
		return ErrNoDataset
	}

	s.id = uuid.NewString()
	s.logger = s.baseLogger.With("session", s.id)
	s.ds = ds
	s.views = dataset.BuildViews(ds)
	s.bySHA = make(map[string]int, len(ds.Commits))
	s.byShort = make(map[string]int, len(ds.Commits))

	for i := range ds.Commits {
		c := &ds.Commits[i]
		if _, dup := s.bySHA[c.SHA]; !dup {
			s.bySHA[c.SHA] = i
		}

		if _, dup := s.byShort[c.Short]; !dup {
			s.byShort[c.Short] = i
		}
	}

	if s.patches == nil {
		s.patches = lru.New[string, []patch.File](max(s.cfg.PatchCacheEntries, 1))
		s.docs = lru.New(max(s.cfg.DocumentCacheEntries, 1),
			lru.WithMaxBytes[docKey](s.cfg.DocumentMaxBytes, func(v string) int64 { return int64(len(v)) }))
	} else {
		s.patches.Clear()
		s.docs.Clear()
	}

	s.index = search.NewIndex(
		search.WithLogger(s.logger),
		search.WithSnippetRadius(s.cfg.SnippetRadius),
		search.WithObserver(func(ok bool) { s.recorder.DocumentIndexed(context.Background(), ok) }),
	)
	s.index.Init(search.Documents(ds))

	s.logger.Info("session loaded", "commits", len(ds.Commits))

	return nil
}

// ID returns the identifier of the current load generation.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.id
}

// Dataset returns the loaded dataset. Callers must not mutate it.
func (s *Session) Dataset() *dataset.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ds
}

// Views returns the per-commit views. Callers must not mutate them.
func (s *Session) Views() []dataset.View {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.views
}

// Audit reports integrity findings for the loaded dataset.
func (s *Session) Audit() []dataset.Finding {
	return dataset.Audit(s.Dataset())
}

// recentKeys caps CacheStatus.Recent.
const recentKeys = 5

// CacheStatus is one cache's counters and its most recently used keys.
type CacheStatus struct {
	lru.Stats

	HitRate float64  `json:"hit_rate"`
	Recent  []string `json:"recent,omitempty"`
}

// CacheStats reports both caches by name. Recent lists short shas, with the
// file scope appended for documents.
func (s *Session) CacheStats() map[string]CacheStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	patches := s.patches.Keys()
	docs := s.docs.Keys()

	status := map[string]CacheStatus{
		CachePatches:   {Stats: s.patches.Stats()},
		CacheDocuments: {Stats: s.docs.Stats()},
	}

	recent := func(name string, keys []string) {
		st := status[name]
		st.HitRate = st.Stats.HitRate()
		st.Recent = keys[:min(len(keys), recentKeys)]
		status[name] = st
	}

	shaKeys := make([]string, len(patches))
	for i, sha := range patches {
		shaKeys[i] = s.short(sha)
	}

	docKeys := make([]string, len(docs))
	for i, k := range docs {
		docKeys[i] = s.short(k.sha)
		if k.scope != "" {
			docKeys[i] += ":" + k.scope
		}
	}

	recent(CachePatches, shaKeys)
	recent(CacheDocuments, docKeys)

	return status
}

func (s *Session) short(sha string) string {
	if idx, ok := s.bySHA[sha]; ok {
		return s.ds.Commits[idx].Short
	}

	return sha
}

// IndexProgress reports the search index build state.
func (s *Session) IndexProgress() search.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.index.Progress()
}

// BuildIndex drives the index to completion through sch. It returns
// ErrIndexSuperseded when the session is reloaded mid-build.
func (s *Session) BuildIndex(ctx context.Context, sch sched.Scheduler) error {
	s.mu.Lock()
	ix, logger := s.index, s.logger
	s.mu.Unlock()

	var (
		superseded bool
		progress   search.Progress
	)

	step := func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.index != ix {
			superseded = true

			return false
		}

		more := ix.IndexBatch(s.cfg.BatchSize)
		progress = ix.Progress()

		return more
	}

	steps, err := sched.Run(ctx, sch, step)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	if superseded {
		return ErrIndexSuperseded
	}

	logger.Debug("search index built", "steps", steps, "skipped", progress.Skipped, "binary_files", progress.BinaryFiles)

	return nil
}
