package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StorageError marks a failed source read. The whole discover call fails;
// partial results are never returned so page and stats stay consistent.
type StorageError struct {
	Source Source
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s source read failed: %v", e.Source, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ResultCache is an optional collaborator caching whole discover results.
type ResultCache interface {
	Get(ctx context.Context, spec FilterSpec, viewer *uuid.UUID) (*CachedResult, error)
	Set(ctx context.Context, spec FilterSpec, viewer *uuid.UUID, res CachedResult) error
}

// CachedResult pairs the page with its stats; the two are always produced
// and cached together.
type CachedResult struct {
	Page  Page        `json:"page"`
	Stats FilterStats `json:"stats"`
}

// Service orchestrates the discovery pipeline: normalize, build predicates
// once, fan out to both sources, merge globally, aggregate. Stateless per
// call; any number of Discover calls may run concurrently.
type Service struct {
	catalog catalogSource
	user    userSource
	cache   ResultCache
	timeout time.Duration
	logger  zerolog.Logger
}

// ServiceOptions configures the discovery service.
type ServiceOptions struct {
	Cache        ResultCache
	QueryTimeout time.Duration
}

// NewService creates a discovery service over the given read store.
func NewService(store QuestionStore, opts ServiceOptions, logger zerolog.Logger) *Service {
	return &Service{
		catalog: catalogSource{store: store},
		user:    userSource{store: store},
		cache:   opts.Cache,
		timeout: opts.QueryTimeout,
		logger:  logger.With().Str("component", "discovery").Logger(),
	}
}

// Discover returns one page of the merged, globally ordered question set
// plus statistics over the full filtered population. The viewer, when
// present, widens visibility to the viewer's own unapproved rows.
func (s *Service) Discover(ctx context.Context, spec FilterSpec, viewer *uuid.UUID) (Page, FilterStats, error) {
	start := time.Now()
	spec = spec.Normalized()

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, spec, viewer); err == nil && cached != nil {
			observeDiscover("cache_hit", time.Since(start))
			return cached.Page, cached.Stats, nil
		}
	}

	pred := BuildPredicates(spec)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	// The two source reads are independent; fan out and require both to
	// complete. A single failure aborts the whole operation.
	var (
		wg         sync.WaitGroup
		catalog    []Candidate
		user       []Candidate
		catalogErr error
		userErr    error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		catalog, catalogErr = s.catalog.Fetch(ctx, pred, viewer)
	}()
	go func() {
		defer wg.Done()
		user, userErr = s.user.Fetch(ctx, pred, viewer)
	}()
	wg.Wait()

	if catalogErr != nil {
		observeDiscover("storage_error", time.Since(start))
		return Page{}, FilterStats{}, &StorageError{Source: SourceCatalog, Err: catalogErr}
	}
	if userErr != nil {
		observeDiscover("storage_error", time.Since(start))
		return Page{}, FilterStats{}, &StorageError{Source: SourceUser, Err: userErr}
	}

	page, err := mergeAndPage(catalog, user, spec)
	if err != nil {
		observeDiscover("merge_error", time.Since(start))
		return Page{}, FilterStats{}, err
	}
	stats := aggregateStats(catalog, user)

	if s.cache != nil {
		if err := s.cache.Set(ctx, spec, viewer, CachedResult{Page: page, Stats: stats}); err != nil {
			s.logger.Warn().Err(err).Msg("result cache write failed")
		}
	}

	s.logger.Debug().
		Int("total", page.Total).
		Int("page", page.Page).
		Int("catalog", len(catalog)).
		Int("user", len(user)).
		Msg("discover completed")
	observeDiscover("ok", time.Since(start))
	return page, stats, nil
}
