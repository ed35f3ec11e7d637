package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/models"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *RESTClient {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewRESTClient(RESTOptions{BaseURL: srv.URL + "/", APIKey: "anon-key"})
	require.NoError(t, err)
	return c
}

func TestRESTClient_ListPlayers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/players", r.URL.Path)
		assert.Equal(t, "*", r.URL.Query().Get("select"))
		assert.Equal(t, "id.asc", r.URL.Query().Get("order"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		// Second row has no sb_fail column value
		w.Write([]byte(`[
			{"id":1,"name":"Kim","pa":20,"hits":6,"double":1,"triple":0,"homerun":1,"walks":4,"sb":2,"sb_fail":0},
			{"id":2,"name":"Lee","pa":10,"hits":3,"double":0,"triple":0,"homerun":0,"walks":1,"sb":1,"sb_fail":null}
		]`))
	})

	players, err := c.ListPlayers(context.Background())
	require.NoError(t, err)
	require.Len(t, players, 2)

	assert.Equal(t, int64(1), players[0].ID)
	assert.Equal(t, "Kim", players[0].Name)
	assert.Equal(t, 1, players[0].Homerun)
	assert.Equal(t, 0, players[1].SBFail)
}

func TestRESTClient_InsertPlayer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		var rows []map[string]interface{}
		if !assert.NoError(t, json.Unmarshal(body, &rows)) || !assert.Len(t, rows, 1) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		_, hasID := rows[0]["id"]
		assert.False(t, hasID, "insert payload must not carry an id")
		assert.Equal(t, "Kim", rows[0]["name"])
		assert.EqualValues(t, 1, rows[0]["sb_fail"])
		_, camel := rows[0]["sbFail"]
		assert.False(t, camel)

		w.WriteHeader(http.StatusCreated)
	})

	err := c.InsertPlayer(context.Background(), models.NewPlayer{Name: "Kim", PA: 20, SBFail: 1})
	assert.NoError(t, err)
}

func TestRESTClient_InsertPlayer_BackendMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"code":"23505","message":"duplicate key value violates unique constraint"}`))
	})

	err := c.InsertPlayer(context.Background(), models.NewPlayer{Name: "Kim"})
	require.Error(t, err)

	var gwErr *Error
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusConflict, gwErr.StatusCode)
	assert.Equal(t, "duplicate key value violates unique constraint", gwErr.Error())
}

func TestRESTClient_DeletePlayer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "eq.42", r.URL.Query().Get("id"))
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, c.DeletePlayer(context.Background(), 42))
}

func TestRESTClient_PlainTextError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
	})

	_, err := c.ListPlayers(context.Background())
	require.Error(t, err)
	assert.Equal(t, "upstream unavailable", err.Error())
}

func TestRESTClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewRESTClient(RESTOptions{BaseURL: url})
	require.NoError(t, err)

	err = c.Ping(context.Background())
	require.Error(t, err)

	var gwErr *Error
	assert.True(t, errors.As(err, &gwErr))
	assert.NotNil(t, gwErr.Unwrap())
}

func TestNewRESTClient_RequiresURL(t *testing.T) {
	_, err := NewRESTClient(RESTOptions{})
	assert.Error(t, err)
}
