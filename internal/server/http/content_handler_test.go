package http

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildings_Lifecycle(t *testing.T) {
	env := newTestEnv(t, time.Second)
	session := env.hub.Register("display-1", "", "")

	rec := env.request(t, http.MethodPost, "/api/v1/buildings",
		map[string]any{"name": "North Tower"})
	require.Equal(t, http.StatusOK, rec.Code)
	created := dataMap(t, decodeEnvelope(t, rec))
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	ev := <-session.Events()
	require.Equal(t, "building", ev.Type)
	require.Equal(t, "created", ev.Data["action"])
	require.EqualValues(t, 1, ev.Version)

	rec = env.request(t, http.MethodGet, "/api/v1/buildings/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "North Tower", dataMap(t, decodeEnvelope(t, rec))["name"])

	rec = env.request(t, http.MethodPut, "/api/v1/buildings/"+id,
		map[string]any{"name": "South Tower"})
	require.Equal(t, http.StatusOK, rec.Code)
	ev = <-session.Events()
	require.Equal(t, "updated", ev.Data["action"])

	rec = env.request(t, http.MethodGet, "/api/v1/buildings", nil)
	buildings, ok := dataMap(t, decodeEnvelope(t, rec))["buildings"].([]any)
	require.True(t, ok)
	require.Len(t, buildings, 1)

	rec = env.request(t, http.MethodDelete, "/api/v1/buildings/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ev = <-session.Events()
	require.Equal(t, "deleted", ev.Data["action"])

	rec = env.request(t, http.MethodDelete, "/api/v1/buildings/"+id, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFloors_Lifecycle(t *testing.T) {
	env := newTestEnv(t, time.Second)
	session := env.hub.Register("display-1", "", "")

	env.request(t, http.MethodPost, "/api/v1/buildings", map[string]any{"id": "hq", "name": "HQ"})
	<-session.Events()

	rec := env.request(t, http.MethodPut, "/api/v1/buildings/hq/floors/3",
		map[string]any{"label": "3F"})
	require.Equal(t, http.StatusOK, rec.Code)
	ev := <-session.Events()
	require.Equal(t, "floor", ev.Type)

	rec = env.request(t, http.MethodGet, "/api/v1/buildings/hq/floors/3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "3F", dataMap(t, decodeEnvelope(t, rec))["label"])

	rec = env.request(t, http.MethodGet, "/api/v1/buildings/hq/floors/abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.request(t, http.MethodDelete, "/api/v1/buildings/hq/floors/3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	<-session.Events()

	rec = env.request(t, http.MethodGet, "/api/v1/buildings/hq/floors/3", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestThemes_SaveBroadcasts(t *testing.T) {
	env := newTestEnv(t, time.Second)
	session := env.hub.Register("display-1", "", "")

	rec := env.request(t, http.MethodGet, "/api/v1/themes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "default", dataMap(t, decodeEnvelope(t, rec))["currentTheme"])

	rec = env.request(t, http.MethodPut, "/api/v1/themes",
		map[string]any{"currentTheme": "dark"})
	require.Equal(t, http.StatusOK, rec.Code)
	ev := <-session.Events()
	require.Equal(t, "theme", ev.Type)
}

func uploadFile(t *testing.T, env *testEnv, path, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func uploadMedia(t *testing.T, env *testEnv, kind, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	return uploadFile(t, env, "/api/v1/media/"+kind, filename, content)
}

func TestFloorImage_UploadServeBroadcast(t *testing.T) {
	env := newTestEnv(t, time.Second)
	session := env.hub.Register("display-1", "", "")

	env.request(t, http.MethodPost, "/api/v1/buildings", map[string]any{"id": "hq", "name": "HQ"})
	<-session.Events()

	payload := []byte("plan-bytes")
	rec := uploadFile(t, env, "/api/v1/buildings/hq/floors/2/image", "plan.png", payload)
	require.Equal(t, http.StatusOK, rec.Code)

	ev := <-session.Events()
	require.Equal(t, "floor_image", ev.Type)
	require.Equal(t, "update", ev.Data["action"])
	eventPayload, ok := ev.Data["payload"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "hq", eventPayload["buildingId"])
	require.EqualValues(t, 2, eventPayload["floorNumber"])

	// The floor document now carries the stored path.
	rec = env.request(t, http.MethodGet, "/api/v1/buildings/hq/floors/2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "buildings/hq/images/floor_2.png",
		dataMap(t, decodeEnvelope(t, rec))["floorImage"])

	rec = env.request(t, http.MethodGet, "/api/v1/buildings/hq/floors/2/image", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, payload, rec.Body.Bytes())
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
}

func TestFloorImage_UnknownBuilding(t *testing.T) {
	env := newTestEnv(t, time.Second)
	rec := uploadFile(t, env, "/api/v1/buildings/ghost/floors/1/image", "plan.png", []byte("x"))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.request(t, http.MethodGet, "/api/v1/buildings/ghost/floors/1/image", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMedia_UploadServeDelete(t *testing.T) {
	env := newTestEnv(t, time.Second)
	session := env.hub.Register("display-1", "", "")
	payload := []byte("png-bytes")

	rec := uploadMedia(t, env, "dashboard", "banner.png", payload)
	require.Equal(t, http.StatusOK, rec.Code)
	ev := <-session.Events()
	require.Equal(t, "dashboard_image", ev.Type)

	rec = env.request(t, http.MethodGet, "/api/v1/media/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	images, ok := dataMap(t, decodeEnvelope(t, rec))["images"].([]any)
	require.True(t, ok)
	require.Len(t, images, 1)

	rec = env.request(t, http.MethodGet, "/api/v1/media/dashboard/banner.png", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, payload, rec.Body.Bytes())
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = env.request(t, http.MethodDelete, "/api/v1/media/dashboard/banner.png", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ev = <-session.Events()
	require.Equal(t, "dashboard_image", ev.Type)
	require.Equal(t, "deleted", ev.Data["action"])

	rec = env.request(t, http.MethodGet, "/api/v1/media/dashboard/banner.png", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMedia_RejectsUnknownKind(t *testing.T) {
	env := newTestEnv(t, time.Second)
	rec := env.request(t, http.MethodGet, "/api/v1/media/posters", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMedia_RejectsBadFilename(t *testing.T) {
	env := newTestEnv(t, time.Second)
	rec := uploadMedia(t, env, "pr", "notes.txt", []byte("x"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
