package upload

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no upload has the given ID.
	ErrNotFound = errors.New("upload: file not found")

	// ErrTooLarge is returned when a file exceeds the size limit.
	ErrTooLarge = errors.New("upload: file too large")
)

// Info describes an uploaded file.
type Info struct {
	ID string `json:"id"`

	// Username is the dashboard user that uploaded the file.
	Username string `json:"username"`

	// Name is the display name the user gave the data set.
	Name string `json:"file_name"`

	// Filename is the original filename from the client.
	Filename string `json:"filename"`

	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"date_added"`
}

// File is an opened upload. The caller must Close it.
type File struct {
	Info

	// Path is the local filesystem path (DiskStore only).
	Path string

	// URL is a presigned download URL (S3Store only, when available).
	URL string

	Reader io.ReadCloser
}

// Close closes the file reader if open.
func (f *File) Close() error {
	if f.Reader != nil {
		return f.Reader.Close()
	}
	return nil
}

// Store is the interface for upload storage backends.
type Store interface {
	// Save stores r under a new ID. info.ID, info.Size and info.CreatedAt
	// are filled by the store.
	Save(ctx context.Context, info Info, r io.Reader) (Info, error)

	// Open returns the file with the given ID.
	Open(ctx context.Context, id string) (*File, error)

	// List returns the uploads of username, newest first. An empty username
	// lists every upload.
	List(ctx context.Context, username string) ([]Info, error)

	Delete(ctx context.Context, id string) error

	// Cleanup removes uploads older than maxAge.
	Cleanup(ctx context.Context, maxAge time.Duration) error
}

func newID() string {
	return uuid.NewString()
}

// validID reports whether id could have been produced by newID. Checking
// before touching storage keeps path separators out of file names and keys.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// copyLimited copies r to w, failing with ErrTooLarge once more than max
// bytes arrive. max <= 0 means no limit.
func copyLimited(w io.Writer, r io.Reader, max int64) (int64, error) {
	if max <= 0 {
		return io.Copy(w, r)
	}
	n, err := io.Copy(w, io.LimitReader(r, max+1))
	if err != nil {
		return n, err
	}
	if n > max {
		return n, ErrTooLarge
	}
	return n, nil
}
