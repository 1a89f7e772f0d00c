package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timgluz/tidevann/tideapi"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ambiguous", &tideapi.Error{Kind: tideapi.KindAmbiguousStation}, http.StatusConflict},
		{"no data", &tideapi.Error{Kind: tideapi.KindNoData}, http.StatusNotFound},
		{"fallback exceeded", &tideapi.Error{Kind: tideapi.KindFallbackExceeded, Err: &tideapi.Error{Kind: tideapi.KindNoData}}, http.StatusNotFound},
		{"insufficient", &tideapi.Error{Kind: tideapi.KindInsufficientData}, http.StatusUnprocessableEntity},
		{"malformed", fmt.Errorf("fetch: %w", &tideapi.Error{Kind: tideapi.KindMalformedResponse}), http.StatusBadGateway},
		{"missing location", tideapi.ErrMissingLocation, http.StatusBadRequest},
		{"transport", errors.New("connection refused"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusForError(tt.err))
		})
	}
}

func TestRenderTidalError(t *testing.T) {
	rec := httptest.NewRecorder()
	RenderTidalError(rec, &tideapi.Error{Kind: tideapi.KindNoData, Message: "no data", Info: `no "tide" here`})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, JSONContentType, rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "no data", body.Kind)
	assert.Equal(t, `no "tide" here`, body.Info)
	assert.Equal(t, `no data: no "tide" here`, body.Error)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	page, p := Paginate(items, NewPagination(1, 2, 0))
	assert.Equal(t, []int{2, 3}, page)
	assert.Equal(t, 5, p.Total)

	page, _ = Paginate(items, NewPagination(4, 10, 0))
	assert.Equal(t, []int{5}, page)

	page, _ = Paginate(items, NewPagination(9, 10, 0))
	assert.Empty(t, page)

	resp := NewCollectionResponse(page, p)
	assert.NotNil(t, resp.Items)
	assert.Equal(t, 5, resp.Total)
}

func TestNewPaginationFromRequest(t *testing.T) {
	tests := []struct {
		query      string
		wantOffset int
		wantLimit  int
	}{
		{"offset=10&limit=abc", 10, DefaultPaginationLimit},
		{"offset=-5&limit=0", 0, DefaultPaginationLimit},
		{"limit=100000", 0, MaxPaginationLimit},
		{"", 0, DefaultPaginationLimit},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/stations?"+tt.query, nil)
			p := NewPaginationFromRequest(r)
			assert.Equal(t, tt.wantOffset, p.Offset)
			assert.Equal(t, tt.wantLimit, p.Limit)
		})
	}
}

func TestPagination_Next(t *testing.T) {
	next, ok := NewPagination(0, 2, 5).Next()
	require.True(t, ok)
	assert.Equal(t, NewPagination(2, 2, 5), next)

	next, ok = next.Next()
	require.True(t, ok)
	assert.Equal(t, 4, next.Offset)

	_, ok = next.Next()
	assert.False(t, ok)

	_, ok = NewPagination(0, 0, 5).Next()
	assert.False(t, ok)
}
