package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"go.uber.org/zap"
)

const kvKeyPrefix = "precedent:emb_cache:"

// KVStore is the byte-level store behind KVCache (Redis in production).
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// KVCache keeps embeddings in a shared key-value store so that repeated queries across
// processes skip the provider. Store errors degrade to cache misses.
type KVCache struct {
	store  KVStore
	scope  string
	logger *zap.Logger
}

// NewKVCache returns a cache over store. scope separates entries of different models or dimensions.
func NewKVCache(store KVStore, scope string, logger *zap.Logger) *KVCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KVCache{store: store, scope: scope, logger: logger}
}

// Get returns the cached vector for key.
func (c *KVCache) Get(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, c.key(key))
	if err != nil {
		return nil, false
	}
	vec, ok := bytesToVector(data)
	if !ok {
		c.logger.Warn("corrupt embedding cache entry", zap.Int("bytes", len(data)))
		return nil, false
	}
	return vec, true
}

// Set stores value under key. Failures are logged and otherwise ignored.
func (c *KVCache) Set(ctx context.Context, key string, value []float32) {
	if err := c.store.Set(ctx, c.key(key), vectorToBytes(value)); err != nil {
		c.logger.Warn("embedding cache write failed", zap.Error(err))
	}
}

func (c *KVCache) key(text string) string {
	h := sha256.Sum256([]byte(text))
	return kvKeyPrefix + c.scope + ":" + hex.EncodeToString(h[:])
}

func vectorToBytes(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, bool) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, false
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, true
}
