package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const metaSuffix = ".meta"

// DiskStore stores uploads on the local filesystem. Each upload is a data
// file named by its ID plus a JSON sidecar with its Info.
type DiskStore struct {
	dir     string
	maxSize int64
}

// NewDiskStore creates a DiskStore rooted at dir.
//
// Parameters:
//   - dir: Directory to store files in, created if missing
//   - maxSize: Maximum file size in bytes (0 = no limit)
func NewDiskStore(dir string, maxSize int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir, maxSize: maxSize}, nil
}

// Save writes r to a new file.
func (s *DiskStore) Save(ctx context.Context, info Info, r io.Reader) (Info, error) {
	if s.maxSize > 0 && info.Size > s.maxSize {
		return Info{}, ErrTooLarge
	}

	info.ID = newID()
	path := s.dataPath(info.ID)
	f, err := os.Create(path)
	if err != nil {
		return Info{}, err
	}

	written, err := copyLimited(f, &ctxReader{ctx: ctx, r: r}, s.maxSize)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return Info{}, err
	}

	info.Size = written
	info.CreatedAt = time.Now().UTC()
	if err := s.saveMeta(info); err != nil {
		os.Remove(path)
		return Info{}, err
	}
	return info, nil
}

// Open opens the file for reading.
func (s *DiskStore) Open(ctx context.Context, id string) (*File, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	info, err := s.loadMeta(id)
	if err != nil {
		return nil, ErrNotFound
	}
	path := s.dataPath(id)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &File{Info: info, Path: path, Reader: f}, nil
}

// List reads every sidecar and returns the matching uploads.
func (s *DiskStore) List(ctx context.Context, username string) ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var out []Info
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, metaSuffix) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := s.loadMeta(strings.TrimSuffix(name, metaSuffix))
		if err != nil {
			continue
		}
		if username == "" || info.Username == username {
			out = append(out, info)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// Delete removes the file and its sidecar.
func (s *DiskStore) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	err := os.Remove(s.dataPath(id))
	os.Remove(s.metaPath(id))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}

// Cleanup removes uploads created before now-maxAge, and data files whose
// sidecar is missing and whose modification time is past the cutoff.
func (s *DiskStore) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := entry.Name()
		if entry.IsDir() || !validID(name) {
			continue
		}

		created := time.Time{}
		if info, err := s.loadMeta(name); err == nil {
			created = info.CreatedAt
		} else if fi, err := entry.Info(); err == nil {
			created = fi.ModTime()
		}
		if !created.IsZero() && created.Before(cutoff) {
			os.Remove(filepath.Join(s.dir, name))
			os.Remove(s.metaPath(name))
		}
	}
	return nil
}

func (s *DiskStore) dataPath(id string) string {
	return filepath.Join(s.dir, id)
}

func (s *DiskStore) metaPath(id string) string {
	return filepath.Join(s.dir, id+metaSuffix)
}

func (s *DiskStore) saveMeta(info Info) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return os.WriteFile(s.metaPath(info.ID), data, 0o644)
}

func (s *DiskStore) loadMeta(id string) (Info, error) {
	data, err := os.ReadFile(s.metaPath(id))
	if err != nil {
		return Info{}, err
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return Info{}, fmt.Errorf("upload: corrupt metadata for %s: %w", id, err)
	}
	return info, nil
}

func sortNewestFirst(infos []Info) {
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
}

// ctxReader stops a copy once ctx is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
