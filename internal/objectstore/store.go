// Package objectstore abstracts the places partitions are uploaded to and
// read from: an S3 bucket or a local directory standing in for one.
package objectstore

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// Store is a flat key space of files.
type Store interface {
	// Exists reports whether key is present. A "not found" answer is not an
	// error; any other failure is.
	Exists(ctx context.Context, key string) (bool, error)
	// Put uploads the local file at src to key, replacing any existing
	// object.
	Put(ctx context.Context, key, src string) error
	// Get downloads key to the local file dst.
	Get(ctx context.Context, key, dst string) error
	// List returns every key under prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	// URI returns the addressable location of key, e.g. s3://bucket/key.
	URI(key string) string
}

// Object identifies one object in a bucket. Lists of objects travel as the
// ingestion manifest from the trigger to the batch job.
type Object struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// Location is a parsed dataset location: either s3://bucket/prefix or a
// local directory.
type Location struct {
	Bucket string
	Prefix string
	Dir    string
}

// IsS3 reports whether the location points at a bucket.
func (l Location) IsS3() bool { return l.Bucket != "" }

// ParseLocation parses an s3:// URI or a local path.
func ParseLocation(raw string) (Location, error) {
	if raw == "" {
		return Location{}, fmt.Errorf("empty location")
	}
	if !strings.Contains(raw, "://") {
		return Location{Dir: raw}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("invalid location %q: %w", raw, err)
	}
	switch u.Scheme {
	case "s3", "s3a", "s3n":
		if u.Host == "" {
			return Location{}, fmt.Errorf("location %q has no bucket", raw)
		}
		return Location{Bucket: u.Host, Prefix: strings.Trim(u.Path, "/")}, nil
	case "file":
		return Location{Dir: u.Path}, nil
	default:
		return Location{}, fmt.Errorf("unsupported location scheme %q", u.Scheme)
	}
}

// Options configures the S3 client behind Open.
type Options struct {
	Region   string
	Endpoint string
}

// Open returns the store behind a location and the key prefix within it.
func Open(ctx context.Context, loc Location, opts Options) (Store, string, error) {
	if !loc.IsS3() {
		return NewDir(loc.Dir), "", nil
	}
	s, err := NewS3(ctx, loc.Bucket, opts)
	if err != nil {
		return nil, "", err
	}
	return s, loc.Prefix, nil
}

// Opener resolves a location to a store and a key prefix within it.
type Opener func(ctx context.Context, loc Location) (Store, string, error)

// NewOpener returns an Opener that builds S3 clients with opts.
func NewOpener(opts Options) Opener {
	return func(ctx context.Context, loc Location) (Store, string, error) {
		return Open(ctx, loc, opts)
	}
}

// Outcome is the result of an Upload.
type Outcome int

const (
	Uploaded Outcome = iota
	Skipped
)

func (o Outcome) String() string {
	if o == Skipped {
		return "skipped"
	}
	return "uploaded"
}

// Upload puts src at key. Unless overwrite is set, an existing object is left
// alone and the upload is skipped. The existence check and the write are not
// atomic; concurrent runs against the same key may both write.
func Upload(ctx context.Context, store Store, key, src string, overwrite bool, log *slog.Logger) (Outcome, error) {
	if !overwrite {
		exists, err := store.Exists(ctx, key)
		if err != nil {
			return 0, err
		}
		if exists {
			log.Info("skipping upload, object already exists (use --overwrite)", "key", key)
			return Skipped, nil
		}
	}
	log.Info("uploading partition", "key", key, "uri", store.URI(key))
	if err := store.Put(ctx, key, src); err != nil {
		return 0, err
	}
	return Uploaded, nil
}
