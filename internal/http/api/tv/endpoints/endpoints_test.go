package endpoints

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/signage/internal/db"
	"github.com/Nixie-Tech-LLC/signage/internal/http/api"
	"github.com/Nixie-Tech-LLC/signage/internal/http/api/tv/packets"
	"github.com/Nixie-Tech-LLC/signage/internal/model"
	"github.com/Nixie-Tech-LLC/signage/internal/storage"
)

type harness struct {
	store  db.Store
	router *gin.Engine
	media  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.Open(db.DriverSQLite, filepath.Join(t.TempDir(), "signage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn))
	store := db.NewStore(conn)

	media := t.TempDir()
	r := gin.New()
	api.MountGroup(r, api.GroupConfig{Prefix: "/api"},
		ScreenModule(store, nil),
		ContentModule(store, storage.NewLocalStorage(media)),
	)
	return &harness{store: store, router: r, media: media}
}

func (h *harness) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) content(t *testing.T, kind, location string, duration int) model.Content {
	t.Helper()
	c, err := h.store.CreateContent(context.Background(), model.Content{
		Name: location, Kind: kind, Location: location, DefaultDuration: duration,
	})
	require.NoError(t, err)
	return c
}

func TestRegister(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/screen/register", gin.H{"name": "no id"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/api/screen/register", gin.H{"identifier": "S1", "name": "Lobby"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var first packets.RegisterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.True(t, first.Success)
	assert.Equal(t, "Lobby", first.Screen.Name)
	assert.Equal(t, model.StatusOnline, first.Screen.Status)

	w = h.do(t, http.MethodPost, "/api/screen/register", gin.H{"identifier": "S1"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var second packets.RegisterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(t, first.Screen.ID, second.Screen.ID)
	assert.Equal(t, "Lobby", second.Screen.Name)
}

func TestHeartbeat(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/screen/ghost/heartbeat", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	h.do(t, http.MethodPost, "/api/screen/register", gin.H{"identifier": "S1"}, nil)
	w = h.do(t, http.MethodPost, "/api/screen/S1/heartbeat", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}

func TestScreenContent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/screen/ghost/content", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	h.do(t, http.MethodPost, "/api/screen/register", gin.H{"identifier": "S1"}, nil)

	w = h.do(t, http.MethodGet, "/api/screen/S1/content", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"playlist":null,"items":[]}`, w.Body.String())

	a := h.content(t, model.KindImage, "a.png", 5)
	b := h.content(t, model.KindVideo, "b.mp4", 30)
	p, err := h.store.CreatePlaylist(ctx, "P1", nil, "", time.Now().UTC())
	require.NoError(t, err)
	override := 12
	_, err = h.store.AddItemToPlaylist(ctx, db.NewItem{PlaylistID: p.ID, ContentID: a.ID})
	require.NoError(t, err)
	_, err = h.store.AddItemToPlaylist(ctx, db.NewItem{PlaylistID: p.ID, ContentID: b.ID, DurationOverride: &override})
	require.NoError(t, err)

	screen, err := h.store.GetScreenByIdentifier(ctx, "S1")
	require.NoError(t, err)
	require.NoError(t, h.store.AssignPlaylistToScreen(ctx, screen.ID, &p.ID))

	w = h.do(t, http.MethodGet, "/api/screen/S1/content", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	var resp packets.ScreenContentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Playlist)
	assert.Equal(t, "P1", resp.Playlist.Name)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, a.ID, resp.Items[0].Content.ID)
	assert.Equal(t, 5, resp.Items[0].Duration)
	assert.Equal(t, b.ID, resp.Items[1].Content.ID)
	assert.Equal(t, 12, resp.Items[1].Duration)

	w = h.do(t, http.MethodGet, "/api/screen/S1/content", nil, map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.Bytes())

	require.NoError(t, h.store.AssignPlaylistToScreen(ctx, screen.ID, nil))
	w = h.do(t, http.MethodGet, "/api/screen/S1/content", nil, map[string]string{"If-None-Match": etag})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"playlist":null,"items":[]}`, w.Body.String())
}

func TestDownload(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(filepath.Join(h.media, "clip.mp4"), []byte("not really a video"), 0o644))

	video := h.content(t, model.KindVideo, "clip.mp4", 10)
	missing := h.content(t, model.KindImage, "gone.png", 10)
	page := h.content(t, model.KindWebpage, "https://example.com", 10)

	w := h.do(t, http.MethodGet, "/api/content/"+itoa(video.ID)+"/download", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "not really a video", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="clip.mp4"`)

	w = h.do(t, http.MethodGet, "/api/content/"+itoa(missing.ID)+"/download", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(t, http.MethodGet, "/api/content/"+itoa(page.ID)+"/download", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(t, http.MethodGet, "/api/content/999/download", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(t, http.MethodGet, "/api/content/abc/download", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestThumbnail(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(filepath.Join(h.media, "a.png"), []byte("png-bytes"), 0o644))

	img := h.content(t, model.KindImage, "a.png", 10)
	video := h.content(t, model.KindVideo, "b.mp4", 10)
	page := h.content(t, model.KindWebpage, "https://example.com", 10)

	w := h.do(t, http.MethodGet, "/api/content/"+itoa(img.ID)+"/thumbnail", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inline")

	w = h.do(t, http.MethodGet, "/api/content/"+itoa(video.ID)+"/thumbnail", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodGet, "/api/content/"+itoa(page.ID)+"/thumbnail", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublicListings(t *testing.T) {
	h := newHarness(t)
	h.content(t, model.KindImage, "a.png", 10)
	h.do(t, http.MethodPost, "/api/screen/register", gin.H{"identifier": "S1"}, nil)

	w := h.do(t, http.MethodGet, "/api/content", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var content []packets.ContentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &content))
	assert.Len(t, content, 1)

	w = h.do(t, http.MethodGet, "/api/screens", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var screens []packets.ScreenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &screens))
	require.Len(t, screens, 1)
	assert.Equal(t, "S1", screens[0].Identifier)

	w = h.do(t, http.MethodGet, "/api/playlist/42", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestETagMatches(t *testing.T) {
	assert.True(t, etagMatches(`"abc"`, `"abc"`))
	assert.True(t, etagMatches(`W/"abc"`, `"abc"`))
	assert.True(t, etagMatches(`"x", "abc"`, `"abc"`))
	assert.True(t, etagMatches(`*`, `"abc"`))
	assert.False(t, etagMatches(``, `"abc"`))
	assert.False(t, etagMatches(`"abd"`, `"abc"`))
	assert.Equal(t, ComputeETag([]byte("a")), ComputeETag([]byte("a")))
	assert.NotEqual(t, ComputeETag([]byte("a")), ComputeETag([]byte("b")))
}
