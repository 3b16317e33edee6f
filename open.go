package craft

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"google.golang.org/api/iterator"
)

const googleStoragePrefix = "gs://"

// IsGoogleStoragePath reports whether p names an object in Google Storage.
func IsGoogleStoragePath(p string) bool {
	return strings.HasPrefix(p, googleStoragePrefix)
}

// splitGoogleStoragePath separates gs://bucket/some/object into its bucket
// and object components.
func splitGoogleStoragePath(p string) (bucket, object string, err error) {
	pathParts := strings.SplitN(strings.TrimPrefix(p, googleStoragePrefix), "/", 2)
	if len(pathParts) != 2 || pathParts[0] == "" {
		return "", "", fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
	}

	return pathParts[0], pathParts[1], nil
}

// Open opens a local file or, if client is non-nil and the path starts with
// gs://, a Google Storage object. Compressed content is transparently
// decompressed.
func Open(ctx context.Context, p string, client *storage.Client) (io.ReadCloser, error) {
	var raw io.ReadCloser

	if IsGoogleStoragePath(p) {
		if client == nil {
			return nil, fmt.Errorf("%s: a storage client is required for gs:// paths", p)
		}
		bucketName, objectName, err := splitGoogleStoragePath(p)
		if err != nil {
			return nil, pfx.Err(err)
		}
		rdr, err := client.Bucket(bucketName).Object(objectName).NewReader(ctx)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", p, err))
		}
		raw = rdr
	} else {
		expanded, err := ExpandHome(p)
		if err != nil {
			return nil, err
		}
		f, err := os.Open(expanded)
		if err != nil {
			return nil, pfx.Err(err)
		}
		raw = f
	}

	rc, _, err := MaybeDecompress(raw)
	if err != nil {
		raw.Close()
		return nil, pfx.Err(fmt.Errorf("%s: %w", p, err))
	}

	return rc, nil
}

// Glob returns the sorted paths under dir whose base name matches pattern.
// dir may be a local directory or a gs:// prefix.
func Glob(ctx context.Context, dir, pattern string, client *storage.Client) ([]string, error) {
	if !IsGoogleStoragePath(dir) {
		expanded, err := ExpandHome(dir)
		if err != nil {
			return nil, err
		}
		matches, err := filepath.Glob(filepath.Join(expanded, pattern))
		if err != nil {
			return nil, pfx.Err(err)
		}
		sort.Strings(matches)
		return matches, nil
	}

	if client == nil {
		return nil, fmt.Errorf("%s: a storage client is required for gs:// paths", dir)
	}

	bucketName, prefix, err := splitGoogleStoragePath(strings.TrimSuffix(dir, "/") + "/")
	if err != nil {
		return nil, pfx.Err(err)
	}

	out := make([]string, 0)
	it := client.Bucket(bucketName).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		} else if err != nil {
			return nil, pfx.Err(err)
		}

		rest := strings.TrimPrefix(attrs.Name, prefix)
		if strings.Contains(rest, "/") {
			// Only direct children of the prefix
			continue
		}
		if ok, err := path.Match(pattern, rest); err != nil {
			return nil, pfx.Err(err)
		} else if ok {
			out = append(out, googleStoragePrefix+bucketName+"/"+attrs.Name)
		}
	}
	sort.Strings(out)

	return out, nil
}
