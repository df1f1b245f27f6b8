package main

import (
	"context"
	"fmt"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-studio/internal/api"
	"github.com/book-expert/voice-studio/internal/config"
	"github.com/book-expert/voice-studio/internal/core"
	"github.com/book-expert/voice-studio/internal/kvstore"
	"github.com/book-expert/voice-studio/internal/objectstore"
	"github.com/book-expert/voice-studio/internal/synth"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// backends holds the connected storage and transport clients.
type backends struct {
	nats    *nats.Conn
	kv      core.KeyValueStore
	objects core.ObjectStore
	closers []func() error
	log     *logger.Logger
}

// Close releases every backend in reverse order of creation.
func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		err := b.closers[i]()
		if err != nil {
			b.log.Warn("Failed to close backend: %v", err)
		}
	}
}

func connect(cfg *config.Config, log *logger.Logger) (*backends, error) {
	deps := &backends{nats: nil, kv: nil, objects: nil, closers: nil, log: log}

	var jetstreamContext nats.JetStreamContext

	if cfg.NeedsNATS() {
		natsConnection, err := nats.Connect(cfg.NATS.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
		}

		deps.nats = natsConnection
		deps.closers = append(deps.closers, func() error {
			return natsConnection.Drain()
		})

		jetstreamContext, err = natsConnection.JetStream()
		if err != nil {
			deps.Close()

			return nil, fmt.Errorf("failed to get JetStream context: %w", err)
		}
	}

	kv, closer, err := buildKeyValueStore(cfg.Storage, jetstreamContext)
	if err != nil {
		deps.Close()

		return nil, err
	}

	deps.kv = kv
	if closer != nil {
		deps.closers = append(deps.closers, closer)
	}

	objects, err := buildObjectStore(cfg.Storage, jetstreamContext)
	if err != nil {
		deps.Close()

		return nil, err
	}

	deps.objects = objects

	log.Info("Backends ready: kv=%s objects=%s", cfg.Storage.Backend, cfg.Storage.Objects)

	return deps, nil
}

// buildKeyValueStore opens the configured persistence backend. The returned
// closer may be nil.
func buildKeyValueStore(
	storage config.StorageConfig,
	jetstreamContext nats.JetStreamContext,
) (core.KeyValueStore, func() error, error) {
	switch storage.Backend {
	case config.BackendNATS:
		store, err := kvstore.NewNats(jetstreamContext, storage.KVBucket)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create NATS key-value store: %w", err)
		}

		return store, nil, nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: storage.RedisAddr})

		err := client.Ping(context.Background()).Err()
		if err != nil {
			_ = client.Close()

			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", storage.RedisAddr, err)
		}

		return kvstore.NewRedis(client, kvstore.WithPrefix(storage.RedisPrefix)), client.Close, nil
	case config.BackendSQLite:
		store, err := kvstore.OpenSQLite(storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}

		return store, store.Close, nil
	case config.BackendMemory:
		return kvstore.NewMemory(), nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: '%s'", config.ErrUnknownBackend, storage.Backend)
	}
}

func buildObjectStore(storage config.StorageConfig, jetstreamContext nats.JetStreamContext) (core.ObjectStore, error) {
	switch storage.Objects {
	case config.BackendNATS:
		store, err := objectstore.NewNats(jetstreamContext, storage.ObjectBucket)
		if err != nil {
			return nil, fmt.Errorf("failed to create NATS object store: %w", err)
		}

		return store, nil
	case config.BackendMemory:
		return objectstore.NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w for objects: '%s'", config.ErrUnknownBackend, storage.Objects)
	}
}

func buildSynthesizer(mode string, cfg *config.Config, deps *backends) (core.Synthesizer, error) {
	switch mode {
	case config.SynthesisMock:
		return synth.NewMock(cfg.Synthesis.MockDelay(), cfg.Synthesis.MockAudioURL), nil
	case config.SynthesisHTTP:
		client := synth.NewHTTPClient(cfg.Synthesis.ServiceURL, cfg.Synthesis.Timeout())

		return synth.NewHTTPSynthesizer(client, deps.objects, api.ObjectPrefix), nil
	case config.SynthesisNATS:
		if deps.nats == nil {
			return nil, config.ErrNATSURLRequired
		}

		return synth.NewNATSSynthesizer(deps.nats, cfg.Synthesis.Subject), nil
	default:
		return nil, fmt.Errorf("%w: '%s'", config.ErrUnknownSynthesisMode, mode)
	}
}
