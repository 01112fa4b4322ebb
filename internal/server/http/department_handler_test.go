package http

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDepartments_CRUDBroadcasts(t *testing.T) {
	env := newTestEnv(t, time.Second)
	session := env.hub.Register("display-1", "", "")

	rec := env.request(t, http.MethodPost, "/api/v1/department", map[string]any{
		"building":   "hq",
		"floor":      "3",
		"department": "Engineering",
		"team":       "Platform",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	created := dataMap(t, decodeEnvelope(t, rec))
	id, ok := created["id"].(float64)
	require.True(t, ok)
	require.NotZero(t, id)

	ev := <-session.Events()
	require.Equal(t, "department", ev.Type)
	require.Equal(t, "created", ev.Data["action"])
	require.EqualValues(t, id, ev.Data["id"])

	path := fmt.Sprintf("/api/v1/department/%d", int64(id))
	rec = env.request(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Engineering", dataMap(t, decodeEnvelope(t, rec))["department"])

	rec = env.request(t, http.MethodPatch, path, map[string]any{"team": "Displays"})
	require.Equal(t, http.StatusOK, rec.Code)
	patched := dataMap(t, decodeEnvelope(t, rec))
	require.Equal(t, "Displays", patched["team"])
	require.Equal(t, "Engineering", patched["department"])
	ev = <-session.Events()
	require.Equal(t, "updated", ev.Data["action"])

	rec = env.request(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ev = <-session.Events()
	require.Equal(t, "deleted", ev.Data["action"])

	rec = env.request(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDepartments_SearchQuery(t *testing.T) {
	env := newTestEnv(t, time.Second)

	env.request(t, http.MethodPost, "/api/v1/department",
		map[string]any{"department": "Engineering", "team": "Platform"})
	env.request(t, http.MethodPost, "/api/v1/department",
		map[string]any{"department": "Sales"})

	rec := env.request(t, http.MethodGet, "/api/v1/department?search=platform", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	departments, ok := dataMap(t, decodeEnvelope(t, rec))["departments"].([]any)
	require.True(t, ok)
	require.Len(t, departments, 1)

	rec = env.request(t, http.MethodGet, "/api/v1/department", nil)
	departments, ok = dataMap(t, decodeEnvelope(t, rec))["departments"].([]any)
	require.True(t, ok)
	require.Len(t, departments, 2)
}

func TestDepartments_BadID(t *testing.T) {
	env := newTestEnv(t, time.Second)
	rec := env.request(t, http.MethodGet, "/api/v1/department/abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.request(t, http.MethodGet, "/api/v1/department/999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
