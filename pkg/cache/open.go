package cache

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendFile  = "file"
	BackendNone  = "none"
	BackendRedis = "redis"
	BackendMongo = "mongodb"
)

// DefaultRedisPrefix namespaces keys in a shared Redis database.
const DefaultRedisPrefix = "donut:"

// DefaultMongoDatabase is used when a mongodb:// URL has no path.
const DefaultMongoDatabase = "donut"

// Clearer is implemented by backends that can drop all of their entries.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// Open returns the backend described by spec:
//
//	""  or "file"             FileCache in dir
//	"file:///var/cache/donut" FileCache in the URL path
//	"none"                    NullCache
//	"redis://host:6379/0"     RedisCache (also rediss://)
//	"mongodb://host/db?collection=c" MongoCache (also mongodb+srv://)
func Open(ctx context.Context, spec, dir string) (Cache, error) {
	switch spec {
	case "", BackendFile:
		return openFile(dir)
	case BackendNone:
		return NewNullCache(), nil
	}

	u, err := url.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("cache spec %q: %w", spec, err)
	}
	switch u.Scheme {
	case "file":
		if u.Path == "" {
			return nil, fmt.Errorf("cache spec %q: missing path", spec)
		}
		return openFile(u.Path)
	case "redis", "rediss":
		rc, err := NewRedisCache(ctx, spec, DefaultRedisPrefix)
		if err != nil {
			return nil, err
		}
		return rc, nil
	case "mongodb", "mongodb+srv":
		db := strings.Trim(u.Path, "/")
		if db == "" {
			db = DefaultMongoDatabase
		}
		coll := u.Query().Get("collection")
		q := u.Query()
		q.Del("collection")
		u.RawQuery = q.Encode()
		mc, err := NewMongoCache(ctx, u.String(), db, coll)
		if err != nil {
			return nil, err
		}
		return mc, nil
	default:
		return nil, fmt.Errorf("cache spec %q: unknown backend %q", spec, u.Scheme)
	}
}

func openFile(dir string) (Cache, error) {
	fc, err := NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}
