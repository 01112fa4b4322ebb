package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSync_Version(t *testing.T) {
	env := newTestEnv(t, time.Second)
	env.hub.Register("display-1", "", "")
	env.hub.Broadcast("theme", nil, "")
	env.hub.Broadcast("theme", nil, "")

	rec := env.request(t, http.MethodGet, "/api/v1/sync/version", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := dataMap(t, decodeEnvelope(t, rec))
	require.EqualValues(t, 2, data["version"])
	require.EqualValues(t, 1, data["connectedClients"])
	require.NotEmpty(t, data["lastUpdate"])
}

func TestSync_StatusSingleClient(t *testing.T) {
	env := newTestEnv(t, time.Second)
	env.hub.Register("display-1", "", "")

	rec := env.request(t, http.MethodGet, "/api/v1/sync/status?clientId=display-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := dataMap(t, decodeEnvelope(t, rec))
	require.Equal(t, true, data["isConnected"])
	require.Equal(t, "display-1", data["clientId"])

	rec = env.request(t, http.MethodGet, "/api/v1/sync/status?clientId=ghost", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSync_StatusGlobal(t *testing.T) {
	env := newTestEnv(t, time.Second)
	env.hub.Register("display-1", "", "")
	env.hub.Register("display-2", "", "")

	rec := env.request(t, http.MethodGet, "/api/v1/sync/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := dataMap(t, decodeEnvelope(t, rec))
	clients, ok := data["connectedClients"].([]any)
	require.True(t, ok)
	require.Len(t, clients, 2)
}
