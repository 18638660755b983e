// Package content resolves URL paths to file bytes under a document root.
// The root is the security boundary: no resolution may yield a file outside
// of it, symlinks included.
package content

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	billyutil "github.com/go-git/go-billy/v5/util"
	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	// ErrNotFound means the path does not name a servable regular file.
	ErrNotFound = errors.New("content: not found")
	// ErrForbidden means the path escapes the root or is unreadable.
	ErrForbidden = errors.New("content: forbidden")
)

// notFoundPage is the root-relative file served as the 404 body when present.
const notFoundPage = "404.html"

// File is a resolved document: its cleaned URL path, full content and
// content type. Owned by one connection handler per request.
type File struct {
	Path string
	Data []byte
	Mime string
}

type cacheEntry struct {
	data  []byte
	mime  string
	size  int64
	mtime time.Time
}

// Resolver maps URL paths to files under a document root. Safe for
// concurrent use: the root and index name are read-only and the cache
// locks internally.
type Resolver struct {
	root  string
	fs    billy.Filesystem
	index string
	cache *lru.Cache[string, *cacheEntry]
}

// NewResolver opens root as the document root. index, when non-empty, is the
// file name tried for directory requests; empty means directories 404.
// cacheEntries bounds the content cache, 0 disables it.
func NewResolver(root, index string, cacheEntries int) (*Resolver, error) {
	if index != "" && (strings.ContainsRune(index, '/') || index == "." || index == "..") {
		return nil, fmt.Errorf("invalid index file name %q", index)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("document root: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("document root %q is not a directory", root)
	}

	r := &Resolver{
		root:  abs,
		fs:    osfs.New(abs, osfs.WithBoundOS()),
		index: index,
	}
	if cacheEntries > 0 {
		c, err := lru.New[string, *cacheEntry](cacheEntries)
		if err != nil {
			return nil, err
		}
		r.cache = c
	}
	return r, nil
}

// FS returns the bound document-root filesystem. Other frontends (TFTP,
// NFS) serve from the same handle so every transport sees one tree.
func (r *Resolver) FS() billy.Filesystem {
	return r.fs
}

// Resolve loads the file named by urlPath. The parser already normalized
// the path; resolution re-checks containment against the canonical on-disk
// path so symlinks cannot defeat the syntactic layer.
func (r *Resolver) Resolve(urlPath string) (*File, error) {
	rel := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if rel == "" || rel == "." {
		if r.index == "" {
			return nil, ErrNotFound
		}
		rel = r.index
	}

	fi, err := r.stat(rel)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		if r.index == "" {
			return nil, ErrNotFound
		}
		rel = path.Join(rel, r.index)
		if fi, err = r.stat(rel); err != nil {
			return nil, err
		}
	}
	if !fi.Mode().IsRegular() {
		return nil, ErrNotFound
	}

	if r.cache != nil {
		if e, ok := r.cache.Get(rel); ok && e.size == fi.Size() && e.mtime.Equal(fi.ModTime()) {
			return &File{Path: "/" + rel, Data: e.data, Mime: e.mime}, nil
		}
	}

	data, err := billyutil.ReadFile(r.fs, rel)
	if err != nil {
		return nil, mapFSError(rel, err)
	}
	f := &File{Path: "/" + rel, Data: data, Mime: TypeByName(rel)}
	if r.cache != nil {
		r.cache.Add(rel, &cacheEntry{data: data, mime: f.Mime, size: fi.Size(), mtime: fi.ModTime()})
	}
	return f, nil
}

// stat resolves rel to its canonical on-disk path, guaranteed under the
// root, and stats it.
func (r *Resolver) stat(rel string) (os.FileInfo, error) {
	full, err := securejoin.SecureJoin(r.root, rel)
	if err != nil {
		return nil, ErrForbidden
	}
	fi, err := os.Stat(full)
	if err != nil {
		return nil, mapFSError(rel, err)
	}
	return fi, nil
}

func mapFSError(rel string, err error) error {
	switch {
	case os.IsNotExist(err):
		return ErrNotFound
	case os.IsPermission(err):
		return ErrForbidden
	default:
		return fmt.Errorf("content: %s: %w", rel, err)
	}
}

// NotFoundPage returns the body of the root-level 404.html when the
// document root carries one.
func (r *Resolver) NotFoundPage() ([]byte, bool) {
	data, err := billyutil.ReadFile(r.fs, notFoundPage)
	if err != nil {
		return nil, false
	}
	return data, true
}
