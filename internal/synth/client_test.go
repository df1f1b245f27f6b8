package synth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/book-expert/voice-studio/internal/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAudioData = "fake-wav-data"

func createSuccessHandler(t *testing.T, seen *synth.SpeechRequest) http.HandlerFunc {
	t.Helper()

	return func(responseWriter http.ResponseWriter, request *http.Request) {
		assert.Equal(t, http.MethodPost, request.Method)
		assert.Equal(t, "/v1/generate/speech", request.URL.Path)
		assert.Equal(t, "application/json", request.Header.Get("Content-Type"))
		assert.Equal(t, "audio/wav", request.Header.Get("Accept"))

		assert.NoError(t, json.NewDecoder(request.Body).Decode(seen))

		responseWriter.Header().Set("Content-Type", "audio/wav")
		responseWriter.WriteHeader(http.StatusOK)
		_, _ = responseWriter.Write([]byte(testAudioData))
	}
}

func TestHTTPClient_GenerateSpeech_Success(t *testing.T) {
	t.Parallel()

	var seen synth.SpeechRequest

	server := httptest.NewServer(createSuccessHandler(t, &seen))
	defer server.Close()

	client := synth.NewHTTPClient(server.URL, 10*time.Second)

	audioData, err := client.GenerateSpeech(context.Background(), synth.SpeechRequest{
		Text:           "Hello world.",
		SpeakerRefPath: "",
		Language:       "",
		Pitch:          1.5,
		Speed:          0.75,
		Emotion:        "sad",
	})
	require.NoError(t, err)

	assert.Equal(t, testAudioData, string(audioData))
	assert.Equal(t, "en", seen.Language, "language defaults to en")
	assert.Equal(t, "sad", seen.Emotion)
	assert.InEpsilon(t, 1.5, seen.Pitch, 0.0001)
}

func TestHTTPClient_GenerateSpeech_EmptyText(t *testing.T) {
	t.Parallel()

	client := synth.NewHTTPClient("http://127.0.0.1:1", time.Second)

	_, err := client.GenerateSpeech(context.Background(), synth.SpeechRequest{})
	require.ErrorIs(t, err, synth.ErrTextEmpty)
}

func TestHTTPClient_GenerateSpeech_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantErr  error
		contains string
	}{
		{
			name: "structured error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(synth.ErrorResponse{Detail: "bad speaker", ErrorCode: "E42"})
			},
			wantErr:  synth.ErrServiceStatus,
			contains: "bad speaker (code: E42)",
		},
		{
			name: "raw error body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("boom"))
			},
			wantErr:  synth.ErrServiceStatus,
			contains: "body: boom",
		},
		{
			name: "wrong content type",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				_, _ = w.Write([]byte("not audio"))
			},
			wantErr:  synth.ErrUnexpectedContentType,
			contains: "text/plain",
		},
		{
			name: "empty audio",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "audio/wav")
				w.WriteHeader(http.StatusOK)
			},
			wantErr:  synth.ErrEmptyAudio,
			contains: "empty audio",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(testCase.handler)
			defer server.Close()

			client := synth.NewHTTPClient(server.URL, 5*time.Second)

			_, err := client.GenerateSpeech(context.Background(), synth.SpeechRequest{Text: "Hi."})
			require.ErrorIs(t, err, testCase.wantErr)
			assert.Contains(t, err.Error(), testCase.contains)
		})
	}
}

func TestHTTPClient_HealthCheck(t *testing.T) {
	t.Parallel()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	require.NoError(t, synth.NewHTTPClient(healthy.URL, time.Second).HealthCheck(context.Background()))

	unhealthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer unhealthy.Close()

	err := synth.NewHTTPClient(unhealthy.URL, time.Second).HealthCheck(context.Background())
	require.ErrorIs(t, err, synth.ErrUnhealthy)
}
