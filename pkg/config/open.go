package config

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/1F47E/camina-segura/pkg/postgis"
	"github.com/1F47E/camina-segura/pkg/redisstore"
	"github.com/1F47E/camina-segura/pkg/store"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenStore opens the configured backend. The returned closer releases its
// connections.
func (c *Config) OpenStore(ctx context.Context, log logrus.FieldLogger) (store.Store, io.Closer, error) {
	switch c.Storage.Backend {
	case BackendMemory:
		return store.NewMemory(), nopCloser{}, nil

	case BackendFile:
		s, err := store.NewFile(c.Storage.DataDir, log)
		if err != nil {
			return nil, nil, err
		}
		return s, nopCloser{}, nil

	case BackendPostGIS:
		s, err := postgis.Open(ctx, postgis.Options{
			Host:           c.PostGIS.Host,
			Port:           c.PostGIS.Port,
			User:           c.PostGIS.User,
			Password:       c.PostGIS.Password,
			Database:       c.PostGIS.Database,
			MaxConnections: c.PostGIS.MaxConnections,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil

	case BackendRedis:
		s, err := redisstore.New(ctx, redisstore.Options{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			Prefix:   c.Redis.Key,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}

	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, c.Storage.Backend)
}
