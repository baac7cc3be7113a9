package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"
)

// envelope wraps a stored value with its revision stamp.
type envelope struct {
	Revision uint64          `json:"revision"`
	Value    json.RawMessage `json:"value"`
}

// File is a KV backed by one gzip-compressed JSON file per key.
// Screenshot payloads dominate the stored bytes, so compression keeps
// the on-disk footprint close to what the browser's quota assumes.
type File struct {
	mu       sync.Mutex
	dir      string
	watchers map[string][]func([]byte)
}

// NewFile creates a file-backed KV rooted at dir.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &File{
		dir:      dir,
		watchers: make(map[string][]func([]byte)),
	}, nil
}

// Get reads and decompresses the value stored for key.
func (f *File) Get(ctx context.Context, key string) ([]byte, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readLocked(key)
}

// Set writes unconditionally.
func (f *File) Set(ctx context.Context, key string, value []byte) (uint64, error) {
	return f.CompareAndSet(ctx, key, value, AnyRevision)
}

// CompareAndSet writes if the on-disk revision matches expect.
func (f *File) CompareAndSet(ctx context.Context, key string, value []byte, expect uint64) (uint64, error) {
	f.mu.Lock()

	_, current, err := f.readLocked(key)
	if err != nil {
		f.mu.Unlock()
		return 0, err
	}
	if expect != AnyRevision && current != expect {
		f.mu.Unlock()
		return 0, ErrConflict
	}

	rev := current + 1
	if err := f.writeLocked(key, value, rev); err != nil {
		f.mu.Unlock()
		return 0, err
	}
	watchers := append([]func([]byte){}, f.watchers[key]...)
	f.mu.Unlock()

	for _, fn := range watchers {
		fn(value)
	}
	return rev, nil
}

// BytesInUse sums the compressed sizes of all stored keys.
func (f *File) BytesInUse(ctx context.Context) (int64, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read storage dir: %w", err)
	}

	var total int64
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json.gz") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total, nil
}

// Watch registers a change callback for key.
func (f *File) Watch(key string, fn func([]byte)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watchers[key] = append(f.watchers[key], fn)
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, key+".json.gz")
}

func (f *File) readLocked(key string) ([]byte, uint64, error) {
	file, err := os.Open(f.path(key))
	if os.IsNotExist(err) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open %s: %w", key, err)
	}
	defer file.Close()

	zr, err := gzip.NewReader(file)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decompress %s: %w", key, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read %s: %w", key, err)
	}

	var env envelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return nil, 0, fmt.Errorf("corrupt storage document %s: %w", key, err)
	}
	return []byte(env.Value), env.Revision, nil
}

// writeLocked persists via temp file and rename so a crash mid-write
// never leaves a torn document behind.
func (f *File) writeLocked(key string, value []byte, rev uint64) error {
	env := envelope{Revision: rev, Value: value}
	data, err := sonic.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(f.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	zw := gzip.NewWriter(tmp)
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to compress %s: %w", key, err)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to flush %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, f.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit %s: %w", key, err)
	}
	return nil
}
