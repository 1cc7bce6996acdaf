package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	valkey "github.com/valkey-io/valkey-go"
)

// ValkeyConfig describes how to reach a Valkey (or Redis) server.
type ValkeyConfig struct {
	Address  string
	Username string
	Password string
	DB       int
	Prefix   string
}

// Valkey is the valkey-go counterpart of Redis with the same contract.
type Valkey struct {
	client valkey.Client
	prefix string
}

// NewValkey connects to the configured server and verifies it with PING.
func NewValkey(cfg ValkeyConfig) (*Valkey, error) {
	if cfg.Address == "" {
		return nil, errors.New("storage: valkey address required")
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if err := ValidatePrefix(prefix); err != nil {
		return nil, err
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:       []string{cfg.Address},
		Username:          cfg.Username,
		Password:          cfg.Password,
		SelectDB:          cfg.DB,
		AlwaysRESP2:       true,
		ForceSingleClient: true,
		DisableCache:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("storage: valkey ping: %w", err)
	}

	return &Valkey{client: client, prefix: prefix}, nil
}

func (v *Valkey) fullKey(key string) string {
	return v.prefix + PrefixSeparator + key
}

// Save stores value with the given ttl.
func (v *Valkey) Save(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	set := v.client.B().Set().Key(v.fullKey(key)).Value(valkey.BinaryString(value))
	var err error
	if ttl > 0 {
		// PX 0 is rejected by the server.
		if ttl < time.Millisecond {
			ttl = time.Millisecond
		}
		err = v.client.Do(ctx, set.Px(ttl).Build()).Error()
	} else {
		err = v.client.Do(ctx, set.Build()).Error()
	}
	if err != nil {
		OperationErrors.WithLabelValues("valkey", "save").Inc()
		return fmt.Errorf("valkey set: %w", err)
	}
	return nil
}

// Get returns the stored value or ErrCacheMiss.
func (v *Valkey) Get(ctx context.Context, key string) ([]byte, error) {
	resp := v.client.Do(ctx, v.client.B().Get().Key(v.fullKey(key)).Build())
	if err := resp.Error(); err != nil {
		if errors.Is(err, valkey.Nil) {
			return nil, ErrCacheMiss
		}
		OperationErrors.WithLabelValues("valkey", "get").Inc()
		return nil, fmt.Errorf("valkey get: %w", err)
	}
	data, err := resp.AsBytes()
	if err != nil {
		OperationErrors.WithLabelValues("valkey", "get").Inc()
		return nil, fmt.Errorf("valkey get bytes: %w", err)
	}
	return data, nil
}

// Clear deletes every key under the store prefix, one SCAN page at a time.
func (v *Valkey) Clear(ctx context.Context) error {
	var cursor uint64
	deleted := 0
	for {
		cmd := v.client.B().Scan().Cursor(cursor).Match(scanPattern(v.prefix)).Count(clearBatchSize).Build()
		entry, err := v.client.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			OperationErrors.WithLabelValues("valkey", "clear").Inc()
			return fmt.Errorf("valkey scan: %w", err)
		}
		if len(entry.Elements) > 0 {
			if err := v.client.Do(ctx, v.client.B().Del().Key(entry.Elements...).Build()).Error(); err != nil {
				OperationErrors.WithLabelValues("valkey", "clear").Inc()
				return fmt.Errorf("valkey del: %w", err)
			}
			deleted += len(entry.Elements)
		}
		cursor = entry.Cursor
		if cursor == 0 {
			break
		}
	}
	ClearedKeys.WithLabelValues("valkey").Add(float64(deleted))
	return nil
}

// Close releases the client connection.
func (v *Valkey) Close() {
	v.client.Close()
}
