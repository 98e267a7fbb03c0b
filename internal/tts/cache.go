package tts

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// maxKeyLen keeps keys under common filesystem name limits
const maxKeyLen = 240

// Cache is a write-once disk cache of synthesized audio in a flat directory.
// The file name is the only metadata; there is no index and no eviction.
type Cache struct {
	dir    string
	synth  Synthesizer
	logger *zap.Logger
	group  singleflight.Group
}

// NewCache creates dir if needed and returns a cache backed by synth
func NewCache(dir string, synth Synthesizer, logger *zap.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheWriteFailed, err)
	}
	return &Cache{dir: dir, synth: synth, logger: logger}, nil
}

// Key returns the file name for text. The exact bytes are encoded, so keys
// are case and whitespace sensitive. Texts too long for a file name fall back
// to a digest; the '=' separator never appears in unpadded base64.
func Key(text string) string {
	key := base64.RawURLEncoding.EncodeToString([]byte(text))
	if len(key) > maxKeyLen {
		sum := sha256.Sum256([]byte(text))
		key = "sha256=" + hex.EncodeToString(sum[:])
	}
	return key + ".mp3"
}

// Path returns where audio for text is stored
func (c *Cache) Path(text string) string {
	return filepath.Join(c.dir, Key(text))
}

// GetOrSynthesize returns cached audio for text, synthesizing it on a miss.
// Concurrent misses for the same text share one provider call.
func (c *Cache) GetOrSynthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" || len(text) > MaxTextBytes {
		return nil, ErrInvalidInput
	}

	path := c.Path(text)
	if data, err := os.ReadFile(path); err == nil {
		c.logger.Debug("TTS cache hit", zap.String("key", filepath.Base(path)))
		return data, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		c.logger.Warn("Failed to read cached audio", zap.String("path", path), zap.Error(err))
	}

	// The shared call outlives any single waiter; provider attempts carry their own timeout.
	synthCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(path, func() (interface{}, error) {
		// another caller may have finished while we waited
		if data, err := os.ReadFile(path); err == nil {
			return data, nil
		}

		audio, err := c.synth.Synthesize(synthCtx, text)
		if err != nil {
			return nil, err
		}
		if err := c.write(path, audio); err != nil {
			c.logger.Error("Failed to write cached audio", zap.String("path", path), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrCacheWriteFailed, err)
		}
		c.logger.Info("Synthesized audio cached", zap.String("key", filepath.Base(path)), zap.Int("bytes", len(audio)))
		return audio, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (c *Cache) write(path string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
