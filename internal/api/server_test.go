package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-studio/internal/api"
	"github.com/book-expert/voice-studio/internal/core"
	"github.com/book-expert/voice-studio/internal/generation"
	"github.com/book-expert/voice-studio/internal/objectstore"
	"github.com/book-expert/voice-studio/internal/session"
	"github.com/book-expert/voice-studio/internal/synth"
	"github.com/book-expert/voice-studio/internal/voices"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	server  *api.Server
	http    *httptest.Server
	session *session.Session
	objects *objectstore.MemoryObjectStore
}

func newTestEnv(t *testing.T, synthesizer core.Synthesizer) *testEnv {
	t.Helper()

	log, err := logger.New(t.TempDir(), "api-test.log")
	require.NoError(t, err)

	if synthesizer == nil {
		synthesizer = synth.NewMock(time.Millisecond, "")
	}

	sess := session.New()
	objects := objectstore.NewMemory()

	server := api.New(api.Dependencies{
		Session:   sess,
		Generator: generation.New(sess, synthesizer, log),
		Uploader:  voices.NewUploader(sess, objects, api.ObjectPrefix, log),
		Objects:   objects,
		Log:       log,
		Location:  time.UTC,
		Now:       func() time.Time { return time.UnixMilli(1700000000000) },
	})

	httpServer := httptest.NewServer(server.Handler())
	t.Cleanup(httpServer.Close)

	return &testEnv{server: server, http: httpServer, session: sess, objects: objects}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader = http.NoBody

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, e.http.URL+path, reader)
	require.NoError(t, err)

	resp, err := noRedirectClient().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}

func TestHealth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestVoices_ListAndSelect(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	list := decode[api.VoicesResponse](t, env.do(t, http.MethodGet, "/api/voices", nil))
	require.Len(t, list.Profiles, 1)
	assert.Equal(t, core.DefaultProfileName, list.Profiles[0].Name)
	require.NotNil(t, list.SelectedID)
	assert.Equal(t, core.DefaultProfileID, *list.SelectedID)

	resp := env.do(t, http.MethodPut, "/api/voices/selected", map[string]any{"id": nil})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Nil(t, env.session.SelectedVoice())

	resp = env.do(t, http.MethodPut, "/api/voices/selected", map[string]any{"id": "missing"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/api/voices/selected", map[string]any{"id": core.DefaultProfileID})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.NotNil(t, env.session.SelectedVoice())
}

func uploadSample(t *testing.T, env *testEnv, fileName, contentType string, data []byte) *http.Response {
	t.Helper()

	var body bytes.Buffer

	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="sample"; filename="`+fileName+`"`)
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	require.NoError(t, err)

	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, env.http.URL+"/api/voices", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func TestVoices_UploadServeAndDelete(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	resp := uploadSample(t, env, "narrator.mp3", "audio/mpeg", []byte("ID3-sample"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	uploaded := decode[api.UploadResponse](t, resp)
	assert.Equal(t, "narrator", uploaded.Profile.Name)
	assert.Equal(t, "10 B", uploaded.Size)
	require.True(t, strings.HasPrefix(uploaded.Profile.SampleURL, api.ObjectPrefix))

	sample := env.do(t, http.MethodGet, uploaded.Profile.SampleURL, nil)
	require.Equal(t, http.StatusOK, sample.StatusCode)
	assert.Equal(t, "audio/mpeg", sample.Header.Get("Content-Type"))

	data, err := io.ReadAll(sample.Body)
	require.NoError(t, err)
	assert.Equal(t, "ID3-sample", string(data))

	resp = env.do(t, http.MethodDelete, "/api/voices/"+core.DefaultProfileID, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "default profile is protected")

	resp = env.do(t, http.MethodDelete, "/api/voices/"+uploaded.Profile.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Len(t, env.session.Profiles(), 1)

	resp = env.do(t, http.MethodDelete, "/api/voices/"+uploaded.Profile.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestVoices_UploadRejectsUnsupported(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	resp := uploadSample(t, env, "notes.txt", "text/plain", []byte("hello"))
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	assert.Len(t, env.session.Profiles(), 1)
}

func TestVoices_RemoveCustom(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	uploadSample(t, env, "a.wav", "audio/wav", []byte("RIFF"))
	uploadSample(t, env, "b.wav", "audio/wav", []byte("RIFF"))

	removed := decode[api.RemovedResponse](t, env.do(t, http.MethodDelete, "/api/voices", nil))
	assert.Equal(t, 2, removed.Removed)
	assert.Len(t, env.session.Profiles(), 1)
}

func TestSettings_Patch(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	settings := decode[api.SettingsResponse](t, env.do(t, http.MethodGet, "/api/settings", nil))
	assert.Equal(t, "neutral", settings.Emotion)

	resp := env.do(t, http.MethodPatch, "/api/settings", map[string]any{"pitch": 1.5, "emotion": "happy"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	settings = decode[api.SettingsResponse](t, resp)
	assert.InEpsilon(t, 1.5, settings.Pitch, 0.0001)
	assert.InEpsilon(t, 1.0, settings.Speed, 0.0001)
	assert.Equal(t, "happy", settings.Emotion)

	tests := []map[string]any{
		{"pitch": 3.0},
		{"speed": 0.1},
		{"emotion": "bored"},
	}

	for _, body := range tests {
		resp = env.do(t, http.MethodPatch, "/api/settings", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "%v", body)
	}

	assert.Equal(t, core.EmotionHappy, env.session.Settings().Emotion)
}

func TestGenerate_Flow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodPost, "/api/generate", api.GenerateRequest{Text: "Hello"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	record := decode[api.AudioResponse](t, resp)
	assert.Equal(t, "Hello", record.Text)
	assert.Equal(t, synth.DefaultMockAudioURL, record.AudioURL)
	assert.Equal(t, core.DefaultProfileName, record.VoiceName)

	resp = env.do(t, http.MethodPost, "/api/generate", api.GenerateRequest{Text: "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	env.session.SelectVoice(nil)

	resp = env.do(t, http.MethodPost, "/api/generate", api.GenerateRequest{Text: "World"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, generation.AlertNoVoiceSelected, decode[api.ErrorResponse](t, resp).Error)

	assert.Len(t, env.session.History(), 1)

	status := decode[api.GenerateStatusResponse](t, env.do(t, http.MethodGet, "/api/generate", nil))
	assert.False(t, status.InFlight)
}

func TestHistory_FilterGroupAndDelete(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	day1 := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)

	for _, record := range []core.GeneratedAudio{
		{ID: "a", Text: "Hello world", AudioURL: "https://example.com/a.mp3", VoiceID: "1", CreatedAt: day1, Settings: core.DefaultVoiceSettings()},
		{ID: "b", Text: "Goodbye", AudioURL: "https://example.com/b.mp3", VoiceID: "gone", CreatedAt: day2, Settings: core.DefaultVoiceSettings()},
	} {
		require.NoError(t, env.session.AddGeneratedAudio(record))
	}

	history := decode[api.HistoryResponse](t, env.do(t, http.MethodGet, "/api/history", nil))
	assert.Equal(t, 2, history.Total)
	require.Len(t, history.Groups, 2)
	assert.Equal(t, "2025-01-02", history.Groups[0].Day)
	assert.Equal(t, session.UnknownVoiceLabel, history.Groups[0].Records[0].VoiceName)
	assert.Empty(t, history.Message)

	filtered := decode[api.HistoryResponse](t, env.do(t, http.MethodGet, "/api/history?q=HELLO&voice=1", nil))
	assert.Equal(t, 1, filtered.Filtered)

	none := decode[api.HistoryResponse](t, env.do(t, http.MethodGet, "/api/history?q=zzz", nil))
	assert.Equal(t, "No results match your search criteria.", none.Message)

	resp := env.do(t, http.MethodDelete, "/api/history/a", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/api/history/a", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	cleared := decode[api.RemovedResponse](t, env.do(t, http.MethodDelete, "/api/history", nil))
	assert.Equal(t, 1, cleared.Removed)

	empty := decode[api.HistoryResponse](t, env.do(t, http.MethodGet, "/api/history", nil))
	assert.Equal(t, "You haven't generated any audio yet.", empty.Message)
}

func TestHistory_Download(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	require.NoError(t, env.objects.Upload(context.Background(), "clip.wav", []byte("RIFFclip")))
	require.NoError(t, env.session.AddGeneratedAudio(core.GeneratedAudio{
		ID: "local", Text: "Hi", AudioURL: api.ObjectPrefix + "clip.wav", VoiceID: "1",
		CreatedAt: time.Now(), Settings: core.DefaultVoiceSettings(),
	}))
	require.NoError(t, env.session.AddGeneratedAudio(core.GeneratedAudio{
		ID: "remote", Text: "Hi", AudioURL: synth.DefaultMockAudioURL, VoiceID: "1",
		CreatedAt: time.Now(), Settings: core.DefaultVoiceSettings(),
	}))

	resp := env.do(t, http.MethodGet, "/api/history/local/download", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="voice-clone-1700000000000.mp3"`, resp.Header.Get("Content-Disposition"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "RIFFclip", string(data))

	resp = env.do(t, http.MethodGet, "/api/history/remote/download", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, synth.DefaultMockAudioURL, resp.Header.Get("Location"))

	resp = env.do(t, http.MethodGet, "/api/history/missing/download", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/objects/missing.wav", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAccountAndWaveform(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	account := decode[api.AccountResponse](t, env.do(t, http.MethodGet, "/api/account", nil))
	assert.Equal(t, "user@example.com", account.Email)
	assert.NotEmpty(t, account.APIKey)

	var line struct {
		Points   []struct{ X, Y float64 } `json:"points"`
		Animated bool                     `json:"animated"`
	}

	resp := env.do(t, http.MethodGet, "/api/waveform?playing=true&phase=0.5", nil)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&line))
	assert.True(t, line.Animated)
	assert.Len(t, line.Points, 81)
}

func TestMetrics_Exposed(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	env.do(t, http.MethodPost, "/api/generate", api.GenerateRequest{Text: "Hello"})

	resp := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `voice_studio_generations_total{outcome="success"} 1`)
	assert.Contains(t, text, "voice_studio_history_records 1")
	assert.Contains(t, text, `route="POST /api/generate"`)
}

func TestEvents_StreamsChanges(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	wsURL := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/api/events"

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()

	defer conn.Close()

	require.Eventually(t, func() bool {
		return env.server.Events().ClientCount() == 1
	}, 5*time.Second, 10*time.Millisecond)

	emotion := core.EmotionSad
	env.session.UpdateSettings(core.SettingsPatch{Emotion: &emotion})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var message api.EventMessage

	require.NoError(t, conn.ReadJSON(&message))
	assert.Equal(t, string(session.EntrySettings), message.Entry)
	require.NotNil(t, message.Settings)
	assert.Equal(t, "sad", message.Settings.Emotion)

	require.NoError(t, env.session.AddGeneratedAudio(core.GeneratedAudio{
		ID: "g1", Text: "Hi", AudioURL: "x", VoiceID: "1", CreatedAt: time.Now(), Settings: core.DefaultVoiceSettings(),
	}))

	require.NoError(t, conn.ReadJSON(&message))
	assert.Equal(t, string(session.EntryHistory), message.Entry)
	require.Len(t, message.History, 1)
	assert.Equal(t, core.DefaultProfileName, message.History[0].VoiceName)
}

func TestEvents_ConcurrentMutationsWithClient(t *testing.T) {
	t.Parallel()

	const (
		writers   = 8
		perWriter = 100
	)

	env := newTestEnv(t, nil)

	wsURL := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/api/events"

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()

	defer conn.Close()

	require.Eventually(t, func() bool {
		return env.server.Events().ClientCount() == 1
	}, 5*time.Second, 10*time.Millisecond)

	var wg sync.WaitGroup

	for writer := range writers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range perWriter {
				id := "c" + strconv.Itoa(writer) + "-" + strconv.Itoa(i)

				assert.NoError(t, env.session.AddProfile(core.VoiceProfile{
					ID: id, Name: "Clone " + id, CreatedAt: time.Now(), SampleURL: "", IsDefault: false,
				}))
				assert.NoError(t, env.session.AddGeneratedAudio(core.GeneratedAudio{
					ID: id, Text: "Hi", AudioURL: "x", VoiceID: "1", CreatedAt: time.Now(), Settings: core.DefaultVoiceSettings(),
				}))
			}
		}()
	}

	done := make(chan struct{})

	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		require.FailNow(t, "mutations hung with an events client connected")
	}

	list := decode[api.VoicesResponse](t, env.do(t, http.MethodGet, "/api/voices", nil))
	assert.Len(t, list.Profiles, 1+writers*perWriter)

	metricsResp := env.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
}
