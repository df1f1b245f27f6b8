package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/book-expert/voice-studio/internal/core"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NatsStore implements core.KeyValueStore on a NATS JetStream key-value bucket.
type NatsStore struct {
	bucket string
	kv     nats.KeyValue
}

// NewNats creates the bucket, or binds to it when it already exists.
func NewNats(jetstreamContext nats.JetStreamContext, bucketName string) (*NatsStore, error) {
	kv, err := jetstreamContext.CreateKeyValue(&nats.KeyValueConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Voice studio state for the %s bucket.", bucketName),
		History:     1,
		Storage:     nats.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			return nil, fmt.Errorf("failed to create key-value bucket '%s': %w", bucketName, err)
		}

		kv, err = jetstreamContext.KeyValue(bucketName)
		if err != nil {
			return nil, fmt.Errorf("failed to bind to existing key-value bucket '%s': %w", bucketName, err)
		}
	}

	return &NatsStore{
		bucket: bucketName,
		kv:     kv,
	}, nil
}

// Get returns the latest revision stored under key.
func (n *NatsStore) Get(_ context.Context, key string) ([]byte, error) {
	entry, err := n.kv.Get(key)
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: '%s'", core.ErrKeyNotFound, key)
		}

		return nil, fmt.Errorf("failed to get key '%s' from bucket '%s': %w", key, n.bucket, err)
	}

	return entry.Value(), nil
}

// Set writes a new revision for key.
func (n *NatsStore) Set(_ context.Context, key string, value []byte) error {
	_, err := n.kv.Put(key, value)
	if err != nil {
		return fmt.Errorf("failed to put key '%s' to bucket '%s': %w", key, n.bucket, err)
	}

	return nil
}

// Delete places a delete marker for key.
func (n *NatsStore) Delete(_ context.Context, key string) error {
	err := n.kv.Delete(key)
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete key '%s' from bucket '%s': %w", key, n.bucket, err)
	}

	return nil
}
