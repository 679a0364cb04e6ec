package storage

import (
	"context"
	"io"
)

// ObjectStore is the read side of the backing store a Delta table lives in.
// Paths are slash separated and relative to the store root.
type ObjectStore interface {
	// Exists reports whether an object is present at path.
	Exists(ctx context.Context, path string) (bool, error)

	// List returns the full paths of the objects directly under dir whose
	// names end with suffix, in lexicographic order.
	List(ctx context.Context, dir, suffix string) ([]string, error)

	// Open streams the object at path.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// OpenReaderAt opens the object at path for random access.
	OpenReaderAt(ctx context.Context, path string) (ReaderAt, error)
}

// ReaderAt is a random access handle with a known size.
type ReaderAt interface {
	io.ReaderAt
	io.Closer
	Size() int64
}
