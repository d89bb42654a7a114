package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Togather-Foundation/eventboard/internal/domain/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEventService is a mock implementation of EventService
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) Create(ctx context.Context, ownerID string, params events.CreateParams) (*events.Event, error) {
	args := m.Called(ctx, ownerID, params)
	event, _ := args.Get(0).(*events.Event)
	return event, args.Error(1)
}

func (m *MockEventService) List(ctx context.Context, filters events.Filters, pagination events.Pagination) ([]events.Event, error) {
	args := m.Called(ctx, filters, pagination)
	list, _ := args.Get(0).([]events.Event)
	return list, args.Error(1)
}

func (m *MockEventService) Get(ctx context.Context, id string) (*events.Event, error) {
	args := m.Called(ctx, id)
	event, _ := args.Get(0).(*events.Event)
	return event, args.Error(1)
}

func (m *MockEventService) Update(ctx context.Context, id, callerID string, patch events.Patch) (*events.Event, error) {
	args := m.Called(ctx, id, callerID, patch)
	event, _ := args.Get(0).(*events.Event)
	return event, args.Error(1)
}

func (m *MockEventService) Delete(ctx context.Context, id, callerID string) error {
	args := m.Called(ctx, id, callerID)
	return args.Error(0)
}

const eventID = "01HZY8Q9V3K4M5N6P7Q8R9S0E1"

func concertEvent() *events.Event {
	created := time.Date(2029, 12, 1, 10, 0, 0, 0, time.UTC)
	return &events.Event{
		ID:        eventID,
		OwnerID:   alice.ID,
		Title:     "Concert",
		Date:      "2030-01-01",
		Place:     "Paris",
		Author:    "Alice Martin",
		CreatedAt: created,
		UpdatedAt: created,
	}
}

// routed serves req through a mux so PathValue is populated.
func routed(pattern string, handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, handler)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestEventsHandlerList(t *testing.T) {
	t.Run("bare array with author", func(t *testing.T) {
		svc := new(MockEventService)
		svc.On("List", mock.Anything, events.Filters{Query: "jazz"}, events.Pagination{Page: 2, Limit: 5}).
			Return([]events.Event{*concertEvent()}, nil)

		rec := httptest.NewRecorder()
		NewEventsHandler(svc, "test").List(rec, httptest.NewRequest(http.MethodGet, "/api/events?q=jazz&page=2&limit=5", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body []eventResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		require.Len(t, body, 1)
		assert.Equal(t, "Alice Martin", body[0].Author)
		assert.Equal(t, alice.ID, body[0].UserID)
		svc.AssertExpectations(t)
	})

	t.Run("empty list is []", func(t *testing.T) {
		svc := new(MockEventService)
		svc.On("List", mock.Anything, mock.Anything, mock.Anything).Return([]events.Event{}, nil)

		rec := httptest.NewRecorder()
		NewEventsHandler(svc, "test").List(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
	})

	t.Run("bad pagination", func(t *testing.T) {
		svc := new(MockEventService)
		rec := httptest.NewRecorder()
		NewEventsHandler(svc, "test").List(rec, httptest.NewRequest(http.MethodGet, "/api/events?limit=1000", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store failure does not leak", func(t *testing.T) {
		svc := new(MockEventService)
		svc.On("List", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

		rec := httptest.NewRecorder()
		NewEventsHandler(svc, "development").List(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	})
}

func TestEventsHandlerMineScopesToCaller(t *testing.T) {
	svc := new(MockEventService)
	svc.On("List", mock.Anything, events.Filters{OwnerID: alice.ID}, events.Pagination{Page: 1, Limit: 30}).
		Return([]events.Event{*concertEvent()}, nil)

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/me/events?owner=01HZY8Q9V3K4M5N6P7Q8R9S0B2", nil), alice.Identity())
	rec := httptest.NewRecorder()
	NewEventsHandler(svc, "test").Mine(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestEventsHandlerGet(t *testing.T) {
	svc := new(MockEventService)
	svc.On("Get", mock.Anything, eventID).Return(concertEvent(), nil)
	svc.On("Get", mock.Anything, "missing").Return(nil, events.ErrNotFound)
	h := NewEventsHandler(svc, "test")

	rec := routed("GET /api/events/{id}", h.Get, httptest.NewRequest(http.MethodGet, "/api/events/"+eventID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Concert"`)

	rec = routed("GET /api/events/{id}", h.Get, httptest.NewRequest(http.MethodGet, "/api/events/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventsHandlerCreate(t *testing.T) {
	t.Run("owner comes from the token", func(t *testing.T) {
		svc := new(MockEventService)
		svc.On("Create", mock.Anything, alice.ID, events.CreateParams{Title: "Concert", Date: "2030-01-01", Place: "Paris"}).
			Return(concertEvent(), nil)

		req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/events",
			strings.NewReader(`{"title":"Concert","date":"2030-01-01","place":"Paris"}`)), alice.Identity())
		rec := httptest.NewRecorder()
		NewEventsHandler(svc, "test").Create(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "/api/events/"+eventID, rec.Header().Get("Location"))
		var body eventEnvelope
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.True(t, body.Success)
		assert.Equal(t, eventID, body.Event.ID)
		svc.AssertExpectations(t)
	})

	t.Run("client cannot choose the owner", func(t *testing.T) {
		svc := new(MockEventService)
		req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/events",
			strings.NewReader(`{"title":"x","date":"y","place":"z","user_id":"01HZY8Q9V3K4M5N6P7Q8R9S0B2"}`)), alice.Identity())
		rec := httptest.NewRecorder()
		NewEventsHandler(svc, "test").Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no identity", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewEventsHandler(new(MockEventService), "test").Create(rec, httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestEventsHandlerUpdate(t *testing.T) {
	place := "Lyon"
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"owner", nil, http.StatusOK},
		{"not owner", events.ErrForbidden, http.StatusForbidden},
		{"missing", events.ErrNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockEventService)
			var result *events.Event
			if tt.err == nil {
				result = concertEvent()
				result.Place = place
			}
			svc.On("Update", mock.Anything, eventID, alice.ID, events.Patch{Place: &place}).Return(result, tt.err)

			req := withIdentity(httptest.NewRequest(http.MethodPut, "/api/events/"+eventID, strings.NewReader(`{"place":"Lyon"}`)), alice.Identity())
			rec := routed("PUT /api/events/{id}", NewEventsHandler(svc, "test").Update, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestEventsHandlerUpdateRejectsEmptyPatch(t *testing.T) {
	for _, body := range []string{`{}`, `{"title":null}`} {
		svc := new(MockEventService)
		req := withIdentity(httptest.NewRequest(http.MethodPut, "/api/events/"+eventID, strings.NewReader(body)), alice.Identity())
		rec := routed("PUT /api/events/{id}", NewEventsHandler(svc, "test").Update, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Contains(t, problemBody(t, rec)["errors"], "body")
		svc.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestEventsHandlerDelete(t *testing.T) {
	svc := new(MockEventService)
	svc.On("Delete", mock.Anything, eventID, alice.ID).Return(nil).Once()
	h := NewEventsHandler(svc, "test")

	req := withIdentity(httptest.NewRequest(http.MethodDelete, "/api/events/"+eventID, nil), alice.Identity())
	rec := routed("DELETE /api/events/{id}", h.Delete, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
	svc.AssertExpectations(t)
}
