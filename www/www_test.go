package www

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swarmcore/config"
	"swarmcore/engine"
	"swarmcore/store"
	"swarmcore/swarm"
)

type webEnv struct {
	eng    *engine.Engine
	router http.Handler
	cookie string
}

func newWebEnv(t *testing.T) *webEnv {
	t.Helper()
	cfg := config.Defaults()
	cfg.Messaging.Backend = ""
	cfg.Database.SQLite.Path = filepath.Join(t.TempDir(), "web.db")
	db, err := store.Open(&cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	eng, err := engine.New(engine.Config{AppConfig: cfg, DB: db, LogFunc: t.Logf})
	require.NoError(t, err)
	require.NoError(t, eng.Start())
	t.Cleanup(eng.Stop)

	router, stop := NewRouter(eng)
	t.Cleanup(stop)
	return &webEnv{eng: eng, router: router}
}

func (we *webEnv) login(t *testing.T) {
	t.Helper()
	form := url.Values{"username": {"admin"}, "password": {"admin"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	we.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	we.cookie = rec.Header().Get("Set-Cookie")
	require.NotEmpty(t, we.cookie)
}

func (we *webEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if we.cookie != "" {
		req.Header.Set("Cookie", we.cookie)
	}
	rec := httptest.NewRecorder()
	we.router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["code"]
}

func TestMutationsRequireLogin(t *testing.T) {
	we := newWebEnv(t)
	rec := we.do(t, http.MethodPost, "/api/robots", map[string]any{"id": 1})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = we.do(t, http.MethodGet, "/api/robots", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	we := newWebEnv(t)
	form := url.Values{"username": {"admin"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	we.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDispatchOverHTTP(t *testing.T) {
	we := newWebEnv(t)
	we.login(t)

	rec := we.do(t, http.MethodPost, "/api/locations", map[string]any{"id": 5, "x": 1, "y": 2, "task_capacity": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = we.do(t, http.MethodPost, "/api/robots", map[string]any{"id": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = we.do(t, http.MethodPost, "/api/robots/1/pull", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = we.do(t, http.MethodPost, "/api/commands", map[string]any{
		"robot_id": 1,
		"command":  swarm.GoToLocation(5),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = we.do(t, http.MethodGet, "/api/robots/1/queue", nil)
	var queue []swarm.Command
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &queue))
	assert.Equal(t, []swarm.Command{swarm.GoToLocation(5)}, queue)

	rec = we.do(t, http.MethodPost, "/api/robots/1/pull", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pulled struct {
		Command    swarm.Command     `json:"command"`
		Coordinate *swarm.Coordinate `json:"coordinate"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pulled))
	assert.Equal(t, swarm.GoToLocation(5), pulled.Command)
	require.NotNil(t, pulled.Coordinate)
	assert.Equal(t, swarm.Coordinate{X: 1, Y: 2}, *pulled.Coordinate)

	rec = we.do(t, http.MethodPost, "/api/robots/1/complete", map[string]any{"success": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = we.do(t, http.MethodGet, "/api/locations/5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var loc struct {
		Occupancy swarm.LocationStatus `json:"occupancy"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loc))
	assert.Equal(t, swarm.Occupied(1), loc.Occupancy)

	rec = we.do(t, http.MethodGet, "/api/robots/1/audit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var audit []store.AuditEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &audit))
	require.NotEmpty(t, audit)
	assert.Equal(t, "web:admin", audit[0].Actor)
}

func TestErrorStatusMapping(t *testing.T) {
	we := newWebEnv(t)
	we.login(t)
	we.do(t, http.MethodPost, "/api/robots", map[string]any{"id": 1})
	we.do(t, http.MethodPost, "/api/locations", map[string]any{"id": 2, "task_capacity": 1})
	we.do(t, http.MethodPost, "/api/locations/2/tasks", map[string]any{"task": "scan"})

	cases := []struct {
		method, path string
		body         any
		status       int
		code         string
	}{
		{http.MethodGet, "/api/robots/9", nil, http.StatusNotFound, "invalid_robot_id"},
		{http.MethodPost, "/api/robots", map[string]any{"id": 1}, http.StatusConflict, "already_registered"},
		{http.MethodPost, "/api/robots/1/complete", map[string]any{"success": true}, http.StatusConflict, "not_in_flight"},
		{http.MethodPost, "/api/commands", map[string]any{"command": swarm.GoToLocation(7)}, http.StatusNotFound, "invalid_location_id"},
		{http.MethodPost, "/api/commands", map[string]any{"command": map[string]string{"kind": "dance"}}, http.StatusBadRequest, "invalid_command"},
		{http.MethodPost, "/api/locations/2/tasks", map[string]any{"task": "weld"}, http.StatusConflict, "capacity_full"},
		{http.MethodPut, "/api/locations/2/status", map[string]any{"status": "occupied"}, http.StatusBadRequest, "invalid_command"},
	}
	for _, tc := range cases {
		rec := we.do(t, tc.method, tc.path, tc.body)
		assert.Equal(t, tc.status, rec.Code, "%s %s: %s", tc.method, tc.path, rec.Body.String())
		assert.Equal(t, tc.code, errorCode(t, rec), "%s %s", tc.method, tc.path)
	}

	rec := we.do(t, http.MethodGet, "/api/robots/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTickAndSummary(t *testing.T) {
	we := newWebEnv(t)
	we.login(t)
	rec := we.do(t, http.MethodPost, "/api/tick", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = we.do(t, http.MethodGet, "/api/swarm", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, float64(1), summary["tick"])
	assert.Equal(t, "per_robot", summary["queue_mode"])
}

func TestEventHubForwardsNotifications(t *testing.T) {
	we := newWebEnv(t)
	hub := NewEventHub()
	hub.Start()
	defer hub.Stop()
	hub.SetupEngineListeners(we.eng)

	ch := hub.AddClient()
	defer hub.RemoveClient(ch)

	_, err := we.eng.RegisterRobot("test", 3)
	require.NoError(t, err)

	select {
	case evt := <-ch:
		assert.Equal(t, "robot-registered", evt.Event)
		assert.Contains(t, evt.Data, `"robot":3`)
	case <-time.After(2 * time.Second):
		t.Fatal("no SSE event received")
	}
}

func TestEventHubDetaches(t *testing.T) {
	we := newWebEnv(t)
	hub := NewEventHub()
	hub.Start()
	defer hub.Stop()
	we.eng.Events.Unsubscribe(hub.SetupEngineListeners(we.eng))

	ch := hub.AddClient()
	defer hub.RemoveClient(ch)
	_, err := we.eng.RegisterRobot("test", 3)
	require.NoError(t, err)

	select {
	case evt := <-ch:
		t.Fatalf("unexpected event %s", evt.Event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(swarm.ErrQueueEmpty))
	assert.Equal(t, http.StatusConflict, statusFor(swarm.ErrQueueFull))
	assert.Equal(t, http.StatusConflict, statusFor(fmt.Errorf("assign_global: %w", swarm.ErrWrongQueueMode)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}

func TestChangePasswordIsAudited(t *testing.T) {
	we := newWebEnv(t)
	we.login(t)

	rec := we.do(t, http.MethodPost, "/api/password", map[string]string{"current": "nope", "new": "secret"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = we.do(t, http.MethodPost, "/api/password", map[string]string{"current": "admin", "new": "secret"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	entries, err := we.eng.DB().ListEntityAudit("admin_user", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "password_changed", entries[0].Action)
	assert.Equal(t, "web:admin", entries[0].Actor)
}
