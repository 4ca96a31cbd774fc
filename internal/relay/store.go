// Package relay implements the file relay and retention engine: dedup of
// inbound files, tiered quota enforcement, object lifecycle, link issuance,
// and throttled progress reporting. It is transport- and store-agnostic;
// the chat client and the object store plug in behind interfaces.
package relay

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// Object is one stored object in the bucket.
type Object struct {
	Key          string    // "<contentID>/<fileName>"
	Size         int64     // bytes
	LastModified time.Time // set by the store at upload time
}

// ContentID returns the content-identifier prefix of the object key.
func (o Object) ContentID() string {
	id, _, _ := strings.Cut(o.Key, "/")
	return id
}

// ObjectStore is the object-storage collaborator.
// Writes are idempotent at the key level: re-uploading a key overwrites,
// deleting a missing key is a no-op.
type ObjectStore interface {
	// List returns all objects whose key starts with prefix.
	// An empty prefix lists the whole bucket.
	List(ctx context.Context, prefix string) ([]Object, error)

	// Put uploads the local file under key with public-read access.
	Put(ctx context.Context, key, localPath string) error

	// Delete removes one object.
	Delete(ctx context.Context, key string) error

	// DeleteAll removes every object and returns the number deleted.
	DeleteAll(ctx context.Context) (int, error)

	// PresignedURL returns a time-limited signed GET URL for key.
	PresignedURL(ctx context.Context, key string, expiresIn time.Duration) (string, error)
}

// ObjectKey derives the deterministic object key for an inbound file.
func ObjectKey(contentID, fileName string) string {
	return contentID + "/" + fileName
}

// EncodeKey percent-encodes an object key for use in a URL path,
// preserving the "/" separators.
func EncodeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
