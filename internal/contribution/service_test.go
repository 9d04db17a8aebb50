package contribution

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jatinkaushik/devprep/internal/db/store"
	"github.com/jatinkaushik/devprep/internal/discovery"
)

// fakeStore is an in-memory Store for exercising the service rules.
type fakeStore struct {
	nextID       int64
	questions    map[int64]discovery.UserQuestion
	companies    map[string]int64
	associations []store.InsertUserAssociationParams
	approvals    map[int64]bool
	favorites    []store.Favorite
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:    1,
		questions: make(map[int64]discovery.UserQuestion),
		companies: make(map[string]int64),
		approvals: make(map[int64]bool),
	}
}

func (f *fakeStore) InsertUserQuestion(_ context.Context, p store.InsertUserQuestionParams) (int64, error) {
	id := f.nextID
	f.nextID++
	f.questions[id] = discovery.UserQuestion{
		ID:          id,
		Title:       p.Title,
		Difficulty:  p.Difficulty,
		Topics:      p.Topics,
		Description: p.Description,
		Solution:    p.Solution,
		Link:        p.Link,
		OwnerID:     p.OwnerID,
		Approved:    false,
		Public:      p.Public,
	}
	return id, nil
}

func (f *fakeStore) GetUserQuestion(_ context.Context, id int64) (discovery.UserQuestion, error) {
	q, ok := f.questions[id]
	if !ok {
		return discovery.UserQuestion{}, store.ErrNotFound
	}
	return q, nil
}

func (f *fakeStore) ListUserQuestionsByOwner(_ context.Context, owner uuid.UUID, limit, offset int) ([]discovery.UserQuestion, int, error) {
	var all []discovery.UserQuestion
	for _, q := range f.questions {
		if q.OwnerID == owner {
			all = append(all, q)
		}
	}
	total := len(all)
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (f *fakeStore) UpdateUserQuestion(_ context.Context, id int64, p store.UpdateUserQuestionParams) error {
	q, ok := f.questions[id]
	if !ok {
		return store.ErrNotFound
	}
	q.Title = p.Title
	q.Difficulty = p.Difficulty
	q.Topics = p.Topics
	q.Description = p.Description
	q.Solution = p.Solution
	q.Link = p.Link
	q.Public = p.Public
	f.questions[id] = q
	return nil
}

func (f *fakeStore) DeleteUserQuestion(_ context.Context, id int64) error {
	if _, ok := f.questions[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.questions, id)
	return nil
}

func (f *fakeStore) EnsureCompany(_ context.Context, name string) (int64, error) {
	if id, ok := f.companies[name]; ok {
		return id, nil
	}
	id := int64(len(f.companies) + 1)
	f.companies[name] = id
	return id, nil
}

func (f *fakeStore) InsertUserAssociation(_ context.Context, p store.InsertUserAssociationParams) error {
	f.associations = append(f.associations, p)
	return nil
}

func (f *fakeStore) InsertApprovalRequest(_ context.Context, questionID int64, _ uuid.UUID) (bool, error) {
	if f.approvals[questionID] {
		return false, nil
	}
	f.approvals[questionID] = true
	return true, nil
}

func (f *fakeStore) AddFavorite(_ context.Context, userID uuid.UUID, catalogID, userQuestionID *int64) (bool, error) {
	for _, fav := range f.favorites {
		if fav.UserID == userID && eqPtr(fav.CatalogQuestionID, catalogID) && eqPtr(fav.UserQuestionID, userQuestionID) {
			return false, nil
		}
	}
	f.favorites = append(f.favorites, store.Favorite{
		ID:                int64(len(f.favorites) + 1),
		UserID:            userID,
		CatalogQuestionID: catalogID,
		UserQuestionID:    userQuestionID,
	})
	return true, nil
}

func (f *fakeStore) RemoveFavorite(_ context.Context, userID uuid.UUID, catalogID, userQuestionID *int64) error {
	kept := f.favorites[:0]
	for _, fav := range f.favorites {
		if fav.UserID == userID && eqPtr(fav.CatalogQuestionID, catalogID) && eqPtr(fav.UserQuestionID, userQuestionID) {
			continue
		}
		kept = append(kept, fav)
	}
	f.favorites = kept
	return nil
}

func (f *fakeStore) ListFavorites(_ context.Context, userID uuid.UUID) ([]store.Favorite, error) {
	var out []store.Favorite
	for _, fav := range f.favorites {
		if fav.UserID == userID {
			out = append(out, fav)
		}
	}
	return out, nil
}

func eqPtr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func newTestService() (*Service, *fakeStore) {
	fs := newFakeStore()
	return NewService(fs, zerolog.Nop()), fs
}

func TestCreate_StartsUnapproved(t *testing.T) {
	svc, _ := newTestService()
	owner := uuid.New()

	q, err := svc.Create(context.Background(), owner, CreateQuestionInput{
		Title:      "Design a rate limiter",
		Difficulty: "medium",
		Topics:     []string{" System Design ", ""},
		Public:     true,
	})
	require.NoError(t, err)

	assert.Equal(t, discovery.DifficultyMedium, q.Difficulty)
	assert.False(t, q.Approved)
	assert.True(t, q.Public)
	assert.Equal(t, []string{"System Design"}, q.Topics)
}

func TestCreate_RejectsInvalidInput(t *testing.T) {
	svc, _ := newTestService()
	owner := uuid.New()

	_, err := svc.Create(context.Background(), owner, CreateQuestionInput{Title: "  ", Difficulty: "Easy"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)

	_, err = svc.Create(context.Background(), owner, CreateQuestionInput{Title: "X", Difficulty: "Impossible"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "difficulty", verr.Field)
}

func TestGet_HidesUnapprovedFromOthers(t *testing.T) {
	svc, _ := newTestService()
	owner := uuid.New()
	stranger := uuid.New()

	q, err := svc.Create(context.Background(), owner, CreateQuestionInput{Title: "Draft", Difficulty: "Easy"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), q.ID, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(context.Background(), q.ID, &stranger)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.Get(context.Background(), q.ID, &owner)
	require.NoError(t, err)
	assert.Equal(t, "Draft", got.Title)
}

func TestUpdateAndDelete_OwnerOnly(t *testing.T) {
	svc, _ := newTestService()
	owner := uuid.New()
	stranger := uuid.New()

	q, err := svc.Create(context.Background(), owner, CreateQuestionInput{Title: "Mine", Difficulty: "Hard"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), q.ID, stranger, CreateQuestionInput{Title: "Stolen", Difficulty: "Easy"})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(context.Background(), q.ID, owner, CreateQuestionInput{Title: "Mine v2", Difficulty: "Easy"})
	require.NoError(t, err)
	assert.Equal(t, "Mine v2", updated.Title)

	err = svc.Delete(context.Background(), q.ID, stranger)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), q.ID, owner))
	err = svc.Delete(context.Background(), q.ID, owner)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddCompanyAssociation_ValidatesVocabulary(t *testing.T) {
	svc, fs := newTestService()
	owner := uuid.New()

	q, err := svc.Create(context.Background(), owner, CreateQuestionInput{Title: "Q", Difficulty: "Easy"})
	require.NoError(t, err)

	err = svc.AddCompanyAssociation(context.Background(), q.ID, owner, AssociationInput{
		Company: "Google", TimePeriod: "last_week", Frequency: 1,
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "time_period", verr.Field)

	err = svc.AddCompanyAssociation(context.Background(), q.ID, owner, AssociationInput{
		Company: "Google", TimePeriod: "30_days", Frequency: 4,
	})
	require.NoError(t, err)
	require.Len(t, fs.associations, 1)
	assert.Equal(t, "30_days", fs.associations[0].TimePeriod)
}

func TestRequestPublicApproval_PendingIsIdempotent(t *testing.T) {
	svc, _ := newTestService()
	owner := uuid.New()

	q, err := svc.Create(context.Background(), owner, CreateQuestionInput{Title: "Q", Difficulty: "Easy"})
	require.NoError(t, err)

	created, err := svc.RequestPublicApproval(context.Background(), q.ID, owner)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.RequestPublicApproval(context.Background(), q.ID, owner)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestFavorites_GlobalIdentityRoundTrip(t *testing.T) {
	svc, _ := newTestService()
	user := uuid.New()

	created, err := svc.AddFavorite(context.Background(), user, 7)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.AddFavorite(context.Background(), user, discovery.UserIDOffset+3)
	require.NoError(t, err)
	assert.True(t, created)

	items, err := svc.ListFavorites(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(7), items[0].QuestionID)
	assert.Equal(t, discovery.SourceCatalog, items[0].Source)
	assert.Equal(t, discovery.UserIDOffset+3, items[1].QuestionID)
	assert.Equal(t, discovery.SourceUser, items[1].Source)

	require.NoError(t, svc.RemoveFavorite(context.Background(), user, 7))
	items, err = svc.ListFavorites(context.Background(), user)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
