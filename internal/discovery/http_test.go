package discovery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMeta struct {
	topics  []string
	periods []string
	err     error
}

func (m stubMeta) ListAllTopics(context.Context) ([]string, error)      { return m.topics, m.err }
func (m stubMeta) ListAllTimePeriods(context.Context) ([]string, error) { return m.periods, m.err }

func TestHandleList_ReturnsPageAndStats(t *testing.T) {
	store := &stubStore{
		catalog:       []CatalogQuestion{catalogQ(1, "Two Sum", DifficultyEasy)},
		catalogAssocs: map[int64][]Association{1: {assoc("Google", "30_days", 12)}},
	}
	h := NewHTTPHandler(newTestService(store), stubMeta{}, nil, zerolog.Nop())

	req := httptest.NewRequest("GET", "/v1/questions?companies=Google&sort_by=frequency", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Questions []MergedQuestion `json:"questions"`
		Total     int              `json:"total"`
		Stats     FilterStats      `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.Len(t, body.Questions, 1)
	assert.Equal(t, "Two Sum", body.Questions[0].Title)
	assert.Equal(t, 1, body.Total)
	assert.Equal(t, 1, body.Stats.TotalQuestions)
	assert.Equal(t, 1, body.Stats.CompaniesCount)
}

func TestHandleList_StorageFailureIsBadGateway(t *testing.T) {
	store := &stubStore{catalogErr: assert.AnError}
	h := NewHTTPHandler(newTestService(store), stubMeta{}, nil, zerolog.Nop())

	req := httptest.NewRequest("GET", "/v1/questions", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleTopics_EmptyListIsNotNull(t *testing.T) {
	h := NewHTTPHandler(nil, stubMeta{}, nil, zerolog.Nop())

	req := httptest.NewRequest("GET", "/v1/meta/topics", nil)
	rec := httptest.NewRecorder()
	h.HandleTopics(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"topics":[]}`, rec.Body.String())
}

func TestHandleDifficulties(t *testing.T) {
	h := NewHTTPHandler(nil, stubMeta{}, nil, zerolog.Nop())

	req := httptest.NewRequest("GET", "/v1/meta/difficulties", nil)
	rec := httptest.NewRecorder()
	h.HandleDifficulties(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"difficulties":["Easy","Medium","Hard"]}`, rec.Body.String())
}
