package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crafting-planner/internal/core/aggregate"
	"crafting-planner/internal/core/planner"
	"crafting-planner/internal/core/session"
	"crafting-planner/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router   *gin.Engine
	sessions *session.Manager
	queue    *aggregate.Queue
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()
	cfg := config.Default()
	cfg.App.Debug = true
	cfg.RateLimit.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}

	sessions := session.NewManager(cfg)
	queue := aggregate.NewQueue(cfg, aggregate.New(cfg))
	t.Cleanup(func() {
		queue.Close()
		_ = sessions.Close()
	})

	router, err := SetupRouter(cfg, sessions, queue)
	require.NoError(t, err)
	return &testServer{router: router, sessions: sessions, queue: queue}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *testServer) createSession(t *testing.T) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code)
	view := decode[session.View](t, w)
	require.NotEmpty(t, view.ID)
	return view.ID
}

type recipeIntentResponse struct {
	RecipeList planner.RecipeListState  `json:"recipe_list"`
	Changed    bool                     `json:"changed"`
	Validation planner.ValidationResult `json:"validation"`
	Status     planner.StatusResult     `json:"status"`
}

type componentIntentResponse struct {
	ComponentList planner.ComponentListState `json:"component_list"`
	Changed       bool                       `json:"changed"`
}

func TestSetupRouter_RequiresDependencies(t *testing.T) {
	_, err := SetupRouter(config.Default(), nil, nil)
	assert.Error(t, err)
}

func TestHealthRoutes(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.createSession(t)

	w := srv.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["sessions"].(map[string]any)["active"])
	assert.Equal(t, "local", body["queue"].(map[string]any)["aggregator"])

	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/ready", "").Code)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/live", "").Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRecipeIntentFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	id := srv.createSession(t)
	base := "/api/v1/sessions/" + id

	w := srv.do(t, http.MethodPost, base+"/recipes/intents", `{"type":"add_recipe","recipe":{"id":1,"name":"Bread"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[recipeIntentResponse](t, w)
	assert.True(t, res.Changed)
	assert.Equal(t, 1, res.RecipeList.Count)
	assert.Equal(t, "1 recipe in your list", res.Status.Message)
	assert.Equal(t, planner.StatusSuccess, res.Status.Type)

	// 重複加入不變更
	w = srv.do(t, http.MethodPost, base+"/recipes/intents", `{"type":"add_recipe","recipe":{"id":"1","name":"Bread"}}`)
	res = decode[recipeIntentResponse](t, w)
	assert.False(t, res.Changed)
	assert.Equal(t, 1, res.RecipeList.Count)

	// 夾限後數量未變，不算變更
	w = srv.do(t, http.MethodPost, base+"/recipes/intents", `{"type":"update_quantity","recipe_id":1,"quantity":0}`)
	res = decode[recipeIntentResponse](t, w)
	assert.False(t, res.Changed)
	assert.Equal(t, 1, res.RecipeList.Recipes[0].Quantity)

	w = srv.do(t, http.MethodPost, base+"/recipes/intents", `{"type":"add_recipe","recipe":{"id":1.0,"name":"Bread"}}`)
	res = decode[recipeIntentResponse](t, w)
	assert.False(t, res.Changed)
	assert.Equal(t, 1, res.RecipeList.Count)

	w = srv.do(t, http.MethodPost, base+"/recipes/intents", `{"type":"update_quantity","recipe_id":1,"quantity":4}`)
	res = decode[recipeIntentResponse](t, w)
	assert.Equal(t, 4, res.RecipeList.Recipes[0].Quantity)

	w = srv.do(t, http.MethodPost, base+"/recipes/intents", `{"type":"remove_recipe","recipe_id":99}`)
	res = decode[recipeIntentResponse](t, w)
	assert.False(t, res.Changed)

	w = srv.do(t, http.MethodPost, base+"/recipes/intents", `{"type":"clear_list"}`)
	res = decode[recipeIntentResponse](t, w)
	assert.True(t, res.Changed)
	assert.Zero(t, res.RecipeList.Count)
	assert.Equal(t, "No recipes available", res.Status.Message)
}

func TestSelectionAndDerivations(t *testing.T) {
	srv := newTestServer(t, nil)
	id := srv.createSession(t)
	base := "/api/v1/sessions/" + id

	w := srv.do(t, http.MethodGet, base+"/validation", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, planner.MessageSelectRecipe, decode[planner.ValidationResult](t, w).ValidationMessage)

	w = srv.do(t, http.MethodPut, base+"/available", `{"count":5}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = srv.do(t, http.MethodGet, base+"/status", "")
	assert.Equal(t, planner.StatusResult{Type: planner.StatusInfo, Message: "5 recipes available", Priority: 3}, decode[planner.StatusResult](t, w))

	w = srv.do(t, http.MethodPut, base+"/selection", `{"recipe":{"id":1,"name":"Bread"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	srv.do(t, http.MethodPost, base+"/recipes/intents", `{"type":"add_recipe","recipe":{"id":2,"name":"Bread"}}`)

	// 名稱相同即視為已在清單中
	w = srv.do(t, http.MethodGet, base+"/validation", "")
	v := decode[planner.ValidationResult](t, w)
	assert.True(t, v.IsAlreadySelected)
	assert.False(t, v.CanAddSelected)
	assert.Equal(t, planner.MessageAlreadyInList, v.ValidationMessage)

	w = srv.do(t, http.MethodPut, base+"/selection", `{"recipe":null}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = srv.do(t, http.MethodGet, base+"/validation", "")
	assert.False(t, decode[planner.ValidationResult](t, w).HasSelection)

	w = srv.do(t, http.MethodPut, base+"/available", `{"count":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = srv.do(t, http.MethodPut, base+"/available", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = srv.do(t, http.MethodPut, base+"/selection", `{"recipe":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestComponentIntentFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	base := "/api/v1/sessions/" + srv.createSession(t)

	w := srv.do(t, http.MethodPost, base+"/components/intents", `{"type":"set_components","components":[{"id":"flour","name":"Flour","quantity":2}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[componentIntentResponse](t, w)
	assert.True(t, res.Changed)
	assert.Len(t, res.ComponentList.Components, 1)

	w = srv.do(t, http.MethodPost, base+"/components/intents", `{"type":"add_component","component":{"id":"salt","name":"Salt"}}`)
	res = decode[componentIntentResponse](t, w)
	require.Len(t, res.ComponentList.Components, 2)
	assert.Equal(t, float64(1), res.ComponentList.Components[1].Quantity)

	w = srv.do(t, http.MethodPost, base+"/components/intents", `{"type":"update_component_quantity","component_id":"flour","quantity":-3}`)
	res = decode[componentIntentResponse](t, w)
	assert.Equal(t, float64(0), res.ComponentList.Components[0].Quantity)

	w = srv.do(t, http.MethodPost, base+"/components/intents", `{"type":"remove_component","component_id":"nope"}`)
	assert.False(t, decode[componentIntentResponse](t, w).Changed)

	w = srv.do(t, http.MethodPost, base+"/components/intents", `{"type":"set_components","components":"garbage"}`)
	res = decode[componentIntentResponse](t, w)
	assert.Empty(t, res.ComponentList.Components)
	assert.JSONEq(t, `{"components":[],"is_calculating":false}`, mustJSON(t, res.ComponentList))
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestRecalculate(t *testing.T) {
	srv := newTestServer(t, nil)
	base := "/api/v1/sessions/" + srv.createSession(t)

	srv.do(t, http.MethodPost, base+"/recipes/intents",
		`{"type":"add_recipe","recipe":{"id":"plank","name":"Plank","ingredients":[{"id":"log","name":"Log","quantity":0.25}]}}`)
	srv.do(t, http.MethodPost, base+"/recipes/intents", `{"type":"update_quantity","recipe_id":"plank","quantity":8}`)

	w := srv.do(t, http.MethodPost, base+"/components/recalculate?wait=true", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[struct {
		ComponentList planner.ComponentListState `json:"component_list"`
	}](t, w)
	assert.False(t, body.ComponentList.IsCalculating)
	assert.Equal(t, []planner.Component{{ID: "log", Name: "Log", Quantity: 2}}, body.ComponentList.Components)

	w = srv.do(t, http.MethodPost, base+"/components/recalculate", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Eventually(t, func() bool {
		w := srv.do(t, http.MethodGet, base, "")
		return !decode[session.View](t, w).ComponentList.IsCalculating
	}, 2*time.Second, 10*time.Millisecond)
}

func TestErrors(t *testing.T) {
	srv := newTestServer(t, nil)
	id := srv.createSession(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown session", http.MethodGet, "/api/v1/sessions/nope", "", http.StatusNotFound, "NOT_FOUND"},
		{"unknown session status", http.MethodGet, "/api/v1/sessions/nope/status", "", http.StatusNotFound, "NOT_FOUND"},
		{"delete unknown", http.MethodDelete, "/api/v1/sessions/nope", "", http.StatusNotFound, "NOT_FOUND"},
		{"unknown intent", http.MethodPost, "/api/v1/sessions/" + id + "/recipes/intents", `{"type":"explode"}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"component intent on recipe route", http.MethodPost, "/api/v1/sessions/" + id + "/recipes/intents", `{"type":"clear_components"}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"malformed component intent", http.MethodPost, "/api/v1/sessions/" + id + "/components/intents", `[]`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"trailing data after intent", http.MethodPost, "/api/v1/sessions/" + id + "/recipes/intents", `{"type":"clear_list"} {}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown selection field", http.MethodPut, "/api/v1/sessions/" + id + "/selection", `{"recipie":{"id":1}}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"negative available count", http.MethodPut, "/api/v1/sessions/" + id + "/available", `{"count":-1}`, http.StatusBadRequest, "INVALID_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode[map[string]any](t, w)["code"])
		})
	}
}

func TestRecalculate_QueueFull(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Queue.Workers = 0
		cfg.Queue.MaxSize = 1
	})
	base := "/api/v1/sessions/" + srv.createSession(t)

	require.Equal(t, http.StatusAccepted, srv.do(t, http.MethodPost, base+"/components/recalculate", "").Code)

	w := srv.do(t, http.MethodPost, base+"/components/recalculate", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", decode[map[string]any](t, w)["code"])
	assert.Equal(t, http.StatusServiceUnavailable, srv.do(t, http.MethodGet, "/ready", "").Code)
}

func TestDeleteSession(t *testing.T) {
	srv := newTestServer(t, nil)
	id := srv.createSession(t)

	assert.Equal(t, http.StatusNoContent, srv.do(t, http.MethodDelete, "/api/v1/sessions/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/api/v1/sessions/"+id, "").Code)
}

func TestRateLimitEnabled(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit.Enabled = true
		cfg.RateLimit.Requests = 1
		cfg.RateLimit.Window = time.Hour
	})

	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/live", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, srv.do(t, http.MethodGet, "/live", "").Code)
}
