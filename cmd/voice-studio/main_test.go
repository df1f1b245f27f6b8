package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/book-expert/logger"
	"github.com/book-expert/voice-studio/internal/config"
	"github.com/book-expert/voice-studio/internal/core"
	"github.com/book-expert/voice-studio/internal/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "main-test.log")
	require.NoError(t, err)

	return log
}

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	return cfg
}

func TestBuildKeyValueStore(t *testing.T) {
	t.Parallel()

	mini := miniredis.RunT(t)

	tests := []struct {
		name    string
		storage config.StorageConfig
	}{
		{name: "memory", storage: config.StorageConfig{Backend: config.BackendMemory}},
		{name: "sqlite", storage: config.StorageConfig{
			Backend:    config.BackendSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "nested", "studio.db"),
		}},
		{name: "redis", storage: config.StorageConfig{
			Backend:     config.BackendRedis,
			RedisAddr:   mini.Addr(),
			RedisPrefix: "test",
		}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			store, closer, err := buildKeyValueStore(testCase.storage, nil)
			require.NoError(t, err)

			if closer != nil {
				t.Cleanup(func() { _ = closer() })
			}

			ctx := context.Background()

			require.NoError(t, store.Set(ctx, "voiceProfiles", []byte("[]")))

			value, err := store.Get(ctx, "voiceProfiles")
			require.NoError(t, err)
			assert.Equal(t, "[]", string(value))

			_, err = store.Get(ctx, "missing")
			require.ErrorIs(t, err, core.ErrKeyNotFound)
		})
	}
}

func TestBuildKeyValueStore_Failures(t *testing.T) {
	t.Parallel()

	_, _, err := buildKeyValueStore(config.StorageConfig{Backend: "postgres"}, nil)
	require.ErrorIs(t, err, config.ErrUnknownBackend)

	_, _, err = buildKeyValueStore(config.StorageConfig{Backend: config.BackendRedis, RedisAddr: "127.0.0.1:1"}, nil)
	require.Error(t, err)
}

func TestConnect_MemoryDefaults(t *testing.T) {
	t.Parallel()

	deps, err := connect(defaultConfig(t), newTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(deps.Close)

	assert.Nil(t, deps.nats)
	require.NotNil(t, deps.kv)
	require.NotNil(t, deps.objects)

	require.NoError(t, deps.objects.Upload(context.Background(), "a.wav", []byte("RIFF")))
}

func TestBuildSynthesizer(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig(t)
	cfg.Synthesis.MockDelayMS = 1
	cfg.Synthesis.ServiceURL = "http://localhost:8000"

	deps, err := connect(cfg, newTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(deps.Close)

	mock, err := buildSynthesizer(config.SynthesisMock, cfg, deps)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	result, err := mock.Synthesize(ctx, core.SynthesisRequest{Text: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, synth.DefaultMockAudioURL, result.AudioURL)

	httpSynth, err := buildSynthesizer(config.SynthesisHTTP, cfg, deps)
	require.NoError(t, err)
	assert.IsType(t, &synth.HTTPSynthesizer{}, httpSynth)

	_, err = buildSynthesizer(config.SynthesisNATS, cfg, deps)
	require.ErrorIs(t, err, config.ErrNATSURLRequired)

	_, err = buildSynthesizer("grpc", cfg, deps)
	require.ErrorIs(t, err, config.ErrUnknownSynthesisMode)
}
