package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore evaluates row conditions and visibility in memory with the same
// semantics the SQL layer renders.
type stubStore struct {
	catalog       []CatalogQuestion
	catalogAssocs map[int64][]Association
	users         []UserQuestion
	userAssocs    map[int64][]Association

	catalogErr error
	userErr    error
}

func (s *stubStore) CatalogQuestions(_ context.Context, row RowConditions, viewer *uuid.UUID) ([]CatalogQuestion, error) {
	if s.catalogErr != nil {
		return nil, s.catalogErr
	}
	var out []CatalogQuestion
	for _, q := range s.catalog {
		visible := q.Approved && q.Public
		if viewer != nil && q.OwnerID != nil && *q.OwnerID == *viewer {
			visible = true
		}
		if visible && row.Match(q.Title, q.Difficulty, q.Topics) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *stubStore) CatalogAssociations(_ context.Context, ids []int64) (map[int64][]Association, error) {
	return groupAssocs(s.catalogAssocs, ids), nil
}

func (s *stubStore) UserQuestions(_ context.Context, row RowConditions, viewer *uuid.UUID) ([]UserQuestion, error) {
	if s.userErr != nil {
		return nil, s.userErr
	}
	var out []UserQuestion
	for _, q := range s.users {
		visible := q.Approved && q.Public
		if viewer != nil && q.OwnerID == *viewer {
			visible = true
		}
		if visible && row.Match(q.Title, q.Difficulty, q.Topics) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *stubStore) UserAssociations(_ context.Context, ids []int64) (map[int64][]Association, error) {
	return groupAssocs(s.userAssocs, ids), nil
}

func groupAssocs(all map[int64][]Association, ids []int64) map[int64][]Association {
	out := make(map[int64][]Association)
	for _, id := range ids {
		if rows, ok := all[id]; ok {
			out[id] = rows
		}
	}
	return out
}

func catalogQ(id int64, title string, d Difficulty) CatalogQuestion {
	return CatalogQuestion{ID: id, Title: title, Difficulty: d, Approved: true, Public: true}
}

func userQ(id int64, title string, d Difficulty, owner uuid.UUID, approved, public bool) UserQuestion {
	return UserQuestion{ID: id, Title: title, Difficulty: d, OwnerID: owner, Approved: approved, Public: public}
}

func newTestService(store QuestionStore) *Service {
	return NewService(store, ServiceOptions{}, zerolog.Nop())
}

func TestDiscover_MergesBothSources(t *testing.T) {
	owner := uuid.New()
	store := &stubStore{
		catalog: []CatalogQuestion{catalogQ(1, "Two Sum", DifficultyEasy)},
		catalogAssocs: map[int64][]Association{
			1: {assoc("Google", "30_days", 40)},
		},
		users: []UserQuestion{userQ(1, "My Question", DifficultyMedium, owner, true, true)},
		userAssocs: map[int64][]Association{
			1: {assoc("Amazon", "3_months", 90)},
		},
	}
	svc := newTestService(store)

	page, stats, err := svc.Discover(context.Background(), FilterSpec{}, nil)
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(1_000_001), page.Items[0].ID)
	assert.Equal(t, SourceUser, page.Items[0].Source)
	assert.Equal(t, int64(1), page.Items[1].ID)
	assert.Equal(t, 2, stats.TotalQuestions)
	assert.Equal(t, 2, stats.CompaniesCount)
}

func TestDiscover_CatalogRequiresAssociation(t *testing.T) {
	store := &stubStore{
		catalog: []CatalogQuestion{
			catalogQ(1, "Linked", DifficultyEasy),
			catalogQ(2, "Orphan", DifficultyEasy),
		},
		catalogAssocs: map[int64][]Association{
			1: {assoc("Google", "30_days", 1)},
		},
	}
	svc := newTestService(store)

	page, _, err := svc.Discover(context.Background(), FilterSpec{}, nil)
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	assert.Equal(t, "Linked", page.Items[0].Title)
}

func TestDiscover_UserQuestionWithoutAssociationsBrowsable(t *testing.T) {
	owner := uuid.New()
	store := &stubStore{
		users: []UserQuestion{userQ(5, "Unlinked", DifficultyHard, owner, true, true)},
	}
	svc := newTestService(store)

	// No company/period constraint: the associationless question appears with
	// an empty grid and zero frequency.
	page, _, err := svc.Discover(context.Background(), FilterSpec{}, nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Empty(t, page.Items[0].Companies)

	// A company constraint excludes it.
	page, _, err = svc.Discover(context.Background(), FilterSpec{Companies: []string{"Google"}}, nil)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestDiscover_VisibilityAnonymousVsOwner(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()
	store := &stubStore{
		users: []UserQuestion{
			userQ(1, "Private Draft", DifficultyEasy, owner, false, false),
			userQ(2, "Published", DifficultyEasy, owner, true, true),
		},
	}
	svc := newTestService(store)

	page, _, err := svc.Discover(context.Background(), FilterSpec{}, nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Published", page.Items[0].Title)

	page, _, err = svc.Discover(context.Background(), FilterSpec{}, &owner)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	page, _, err = svc.Discover(context.Background(), FilterSpec{}, &other)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestDiscover_AndMembershipAcrossAssociationRows(t *testing.T) {
	store := &stubStore{
		catalog: []CatalogQuestion{
			catalogQ(1, "Both", DifficultyEasy),
			catalogQ(2, "OnlyGoogle", DifficultyEasy),
		},
		catalogAssocs: map[int64][]Association{
			1: {assoc("Google", "30_days", 3), assoc("Amazon", "3_months", 4)},
			2: {assoc("Google", "30_days", 9)},
		},
	}
	svc := newTestService(store)

	spec := FilterSpec{Companies: []string{"Google", "Amazon"}, CompanyLogic: CombineAnd}
	page, stats, err := svc.Discover(context.Background(), spec, nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Both", page.Items[0].Title)
	assert.Equal(t, 1, stats.TotalQuestions)

	spec.CompanyLogic = CombineOr
	page, stats, err = svc.Discover(context.Background(), spec, nil)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, stats.TotalQuestions)
}

func TestDiscover_FrequencySortSpansPages(t *testing.T) {
	store := &stubStore{
		catalog: []CatalogQuestion{
			catalogQ(1, "Frequent", DifficultyEasy),
			catalogQ(2, "Rare", DifficultyEasy),
		},
		catalogAssocs: map[int64][]Association{
			1: {assoc("Google", "30_days", 5)},
			2: {assoc("Google", "30_days", 2)},
		},
	}
	svc := newTestService(store)
	spec := FilterSpec{
		Companies: []string{"Google"},
		SortBy:    SortByFrequency,
		SortOrder: SortDesc,
		Page:      1,
		PageSize:  1,
	}

	page, _, err := svc.Discover(context.Background(), spec, nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Frequent", page.Items[0].Title)
	assert.Equal(t, 2, page.Total)

	spec.Page = 2
	page, _, err = svc.Discover(context.Background(), spec, nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Rare", page.Items[0].Title)
}

func TestDiscover_StorageErrorAbortsWholeCall(t *testing.T) {
	boom := errors.New("connection refused")
	store := &stubStore{
		catalog:       []CatalogQuestion{catalogQ(1, "Fine", DifficultyEasy)},
		catalogAssocs: map[int64][]Association{1: {assoc("Google", "30_days", 1)}},
		userErr:       boom,
	}
	svc := newTestService(store)

	page, stats, err := svc.Discover(context.Background(), FilterSpec{}, nil)
	require.Error(t, err)

	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, SourceUser, serr.Source)
	assert.ErrorIs(t, err, boom)

	// No partial results.
	assert.Empty(t, page.Items)
	assert.Zero(t, stats.TotalQuestions)
}

func TestDiscover_EmptyResultIsValid(t *testing.T) {
	svc := newTestService(&stubStore{})

	page, stats, err := svc.Discover(context.Background(), FilterSpec{Search: "nothing matches"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.Equal(t, 0, page.TotalPages)
	assert.Empty(t, page.Items)
	assert.Zero(t, stats.TotalQuestions)
}

func TestDiscover_Idempotent(t *testing.T) {
	store := &stubStore{
		catalog: []CatalogQuestion{
			catalogQ(1, "A", DifficultyEasy),
			catalogQ(2, "B", DifficultyMedium),
		},
		catalogAssocs: map[int64][]Association{
			1: {assoc("Google", "30_days", 3)},
			2: {assoc("Amazon", "3_months", 7)},
		},
	}
	svc := newTestService(store)
	spec := FilterSpec{SortBy: SortByFrequency, SortOrder: SortDesc}

	first, firstStats, err := svc.Discover(context.Background(), spec, nil)
	require.NoError(t, err)
	second, secondStats, err := svc.Discover(context.Background(), spec, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstStats, secondStats)
}

// memoryCache records cache traffic for assertions.
type memoryCache struct {
	entries map[string]CachedResult
	hits    int
}

func (m *memoryCache) key(spec FilterSpec, viewer *uuid.UUID) string {
	who := "anon"
	if viewer != nil {
		who = viewer.String()
	}
	return who + "|" + spec.Search
}

func (m *memoryCache) Get(_ context.Context, spec FilterSpec, viewer *uuid.UUID) (*CachedResult, error) {
	if res, ok := m.entries[m.key(spec, viewer)]; ok {
		m.hits++
		return &res, nil
	}
	return nil, nil
}

func (m *memoryCache) Set(_ context.Context, spec FilterSpec, viewer *uuid.UUID, res CachedResult) error {
	if m.entries == nil {
		m.entries = make(map[string]CachedResult)
	}
	m.entries[m.key(spec, viewer)] = res
	return nil
}

func TestDiscover_CachedResultServed(t *testing.T) {
	store := &stubStore{
		catalog:       []CatalogQuestion{catalogQ(1, "A", DifficultyEasy)},
		catalogAssocs: map[int64][]Association{1: {assoc("Google", "30_days", 3)}},
	}
	cache := &memoryCache{}
	svc := NewService(store, ServiceOptions{Cache: cache}, zerolog.Nop())

	first, _, err := svc.Discover(context.Background(), FilterSpec{}, nil)
	require.NoError(t, err)

	second, _, err := svc.Discover(context.Background(), FilterSpec{}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, first, second)
}
