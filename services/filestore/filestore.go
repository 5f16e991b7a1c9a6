// Package filestore implements material.Storage on local disk, Amazon S3 and Backblaze B2.
package filestore

import (
	"context"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/material"
)

const (
	BackendLocal = "local"
	BackendS3    = "s3"
	BackendB2    = "b2"

	// LocalURLPrefix is the route the API serves local files under.
	LocalURLPrefix = "/api/uploads"
)

var errInvalidKey = errors.New("invalid file key")

// New returns the file storage selected by conf.Storage.Backend.
func New(ctx context.Context, conf *core.Config) (material.Storage, error) {
	switch conf.Storage.Backend {
	case BackendLocal:
		return NewLocalStorage(conf.Storage.LocalDir, LocalURLPrefix)
	case BackendS3:
		return NewS3Storage(conf)
	case BackendB2:
		return NewB2Storage(ctx, conf)
	default:
		return nil, errors.Errorf("unknown file storage backend %q", conf.Storage.Backend)
	}
}

// cleanKey normalises a slash-separated key. Keys with a ".." segment are rejected.
func cleanKey(key string) (string, error) {
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", errInvalidKey
		}
	}
	k := strings.TrimPrefix(path.Clean("/"+key), "/")
	if k == "" {
		return "", errInvalidKey
	}
	return k, nil
}
