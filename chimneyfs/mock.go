package chimneyfs

import (
	"bytes"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aosasona/chimney/chimneyerr"
)

// Mock is an in-memory FS seeded with a fixed table of (path, content)
// pairs, used as the test fixture for path-resolution and request-service
// tests. Grounded in the original implementation's filesystem/mock.rs and
// the teacher's caddytls/storagetest fake-backing-store pattern.
type Mock struct {
	files map[string][]byte
}

// NewMock returns a Mock seeded with files, keyed by site-relative path
// (a leading "/" is optional and normalized away).
func NewMock(files map[string]string) *Mock {
	m := &Mock{files: make(map[string][]byte, len(files))}
	for p, content := range files {
		m.files[normalize(p)] = []byte(content)
	}
	return m
}

func normalize(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

func (m *Mock) Stat(p string) (Info, error) {
	key := normalize(p)
	if content, ok := m.files[key]; ok {
		return Info{Kind: KindFile, Size: int64(len(content)), ModTime: time.Unix(0, 0)}, nil
	}
	if m.isDir(key) {
		return Info{Kind: KindDir, ModTime: time.Unix(0, 0)}, nil
	}
	return Info{}, chimneyerr.ErrNotFound
}

func (m *Mock) isDir(key string) bool {
	if key == "" {
		return len(m.files) > 0
	}
	prefix := key + "/"
	for p := range m.files {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func (m *Mock) Open(p string) (io.ReadCloser, error) {
	key := normalize(p)
	content, ok := m.files[key]
	if !ok {
		if m.isDir(key) {
			return nil, chimneyerr.ErrDenied
		}
		return nil, chimneyerr.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (m *Mock) List(p string) ([]Entry, error) {
	key := normalize(p)
	if _, ok := m.files[key]; ok {
		return nil, chimneyerr.ErrNotDir
	}
	if !m.isDir(key) {
		return nil, chimneyerr.ErrNotFound
	}
	prefix := key
	if prefix != "" {
		prefix += "/"
	}
	seen := make(map[string]bool)
	var out []Entry
	for p, content := range m.files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		name := rest
		kind := KindFile
		size := int64(len(content))
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			name = rest[:idx]
			kind = KindDir
			size = 0
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, Entry{Name: name, Info: Info{Kind: kind, Size: size, ModTime: time.Unix(0, 0)}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Mock) Exists(p string) bool {
	_, err := m.Stat(p)
	return err == nil
}
