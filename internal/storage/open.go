package storage

import (
	"context"
	"fmt"
	"io"

	"dailyquests/internal/config"
)

// Open builds the backend named in settings. On success the closer is never nil.
func Open(ctx context.Context, s config.StorageSettings) (Store, io.Closer, error) {
	switch s.Backend {
	case "memory":
		return NewMemoryStore(), nopCloser{}, nil
	case "file":
		st, err := NewFileStore(s.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return st, nopCloser{}, nil
	case "sqlite":
		st, err := OpenSQLite(ctx, s.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return st, st, nil
	case "redis":
		st, err := DialRedis(ctx, s.RedisAddr, s.RedisPassword, s.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return st, st, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", s.Backend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
