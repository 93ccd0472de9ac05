// Package storage keeps uploaded objects (user avatars) in a directory tree
// addressed by slash-separated keys.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("object not found")
	ErrTooLarge    = errors.New("object too large")
	ErrUnsupported = errors.New("unsupported image type")
	ErrInvalidKey  = errors.New("invalid object key")
)

// AvatarTypes are the content types accepted for avatars.
var AvatarTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// Object describes a stored object.
type Object struct {
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// DiskBucket stores objects as files below Root.
type DiskBucket struct {
	Root     string
	MaxBytes int64
}

func NewDiskBucket(root string, maxBytes int64) (*DiskBucket, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create bucket dir: %w", err)
	}
	return &DiskBucket{Root: root, MaxBytes: maxBytes}, nil
}

var (
	defaultBucket *DiskBucket
	defaultMu     sync.RWMutex
)

// SetDefault installs the bucket used by the HTTP handlers.
func SetDefault(b *DiskBucket) {
	defaultMu.Lock()
	defaultBucket = b
	defaultMu.Unlock()
}

func Default() *DiskBucket {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultBucket
}

// AvatarKey builds the key of a new avatar object for userID.
func AvatarKey(userID, ext string) string {
	return path.Join("avatars", userID, uuid.NewString()+ext)
}

// PutAvatar sniffs r, rejects anything that is not an accepted image and
// stores it under a fresh avatars/<userID>/ key.
func (b *DiskBucket) PutAvatar(userID string, r io.Reader) (Object, error) {
	if userID == "" || strings.ContainsAny(userID, `/\`) || userID == ".." {
		return Object{}, ErrInvalidKey
	}
	data, err := b.readLimited(r)
	if err != nil {
		return Object{}, err
	}
	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), AvatarTypes...) {
		return Object{}, fmt.Errorf("%w: %s", ErrUnsupported, mt.String())
	}
	return b.Put(AvatarKey(userID, mt.Extension()), bytes.NewReader(data))
}

// Put writes r under key, replacing any existing object.
func (b *DiskBucket) Put(key string, r io.Reader) (Object, error) {
	full, err := b.path(key)
	if err != nil {
		return Object{}, err
	}
	data, err := b.readLimited(r)
	if err != nil {
		return Object{}, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Object{}, err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return Object{}, err
	}
	return Object{Key: key, ContentType: mimetype.Detect(data).String(), Size: int64(len(data))}, nil
}

// Open returns the object's content. The caller closes it.
func (b *DiskBucket) Open(key string) (*os.File, Object, error) {
	full, err := b.path(key)
	if err != nil {
		return nil, Object{}, err
	}
	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, Object{}, ErrNotFound
	}
	if err != nil {
		return nil, Object{}, err
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		f.Close()
		return nil, Object{}, ErrNotFound
	}
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return nil, Object{}, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, Object{}, err
	}
	return f, Object{Key: key, ContentType: mt.String(), Size: info.Size()}, nil
}

func (b *DiskBucket) Delete(key string) error {
	full, err := b.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(full)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

func (b *DiskBucket) readLimited(r io.Reader) ([]byte, error) {
	if b.MaxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, b.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > b.MaxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

// path maps a key to a file below Root, refusing keys that escape it.
func (b *DiskBucket) path(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", ErrInvalidKey
	}
	return filepath.Join(b.Root, filepath.FromSlash(key)), nil
}
