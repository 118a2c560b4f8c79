package chimneyfs

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aosasona/chimney/chimneyerr"
)

// Local is a FS backed by the real disk, rooted at Root. Every path is
// joined against Root and canonicalized; anything that resolves outside
// Root is rejected, grounded in httpserver.SafePath's traversal guard
// (caddyhttp/httpserver/server.go) and staticfiles.FileServer's use of
// http.Dir's jailed Open.
type Local struct {
	Root string
}

// NewLocal returns a Local FS rooted at root.
func NewLocal(root string) *Local {
	return &Local{Root: root}
}

// resolve joins reqPath onto fs.Root and verifies the result does not
// escape the root, mirroring SafePath's "clean then join" approach but
// additionally rejecting a result whose absolute form falls outside Root
// after symlink resolution is NOT performed (matching the teacher: Caddy's
// SafePath relies on lexical cleaning, not symlink-aware canonicalization).
func (fs *Local) resolve(reqPath string) (string, error) {
	cleaned := filepath.ToSlash(reqPath)
	cleaned = strings.ReplaceAll(cleaned, "\x00", "")
	joined := filepath.Join(fs.Root, filepath.FromSlash(filepath.Clean("/"+cleaned)))

	rootAbs, err := filepath.Abs(fs.Root)
	if err != nil {
		return "", chimneyerr.New(chimneyerr.KindFilesystem, "Local.resolve", err)
	}
	joinedAbs, err := filepath.Abs(joined)
	if err != nil {
		return "", chimneyerr.New(chimneyerr.KindFilesystem, "Local.resolve", err)
	}
	if joinedAbs != rootAbs && !strings.HasPrefix(joinedAbs, rootAbs+string(filepath.Separator)) {
		return "", chimneyerr.ErrDenied
	}
	return joined, nil
}

func (fs *Local) Stat(path string) (Info, error) {
	full, err := fs.resolve(path)
	if err != nil {
		return Info{}, err
	}
	fi, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, chimneyerr.ErrNotFound
		}
		if os.IsPermission(err) {
			return Info{}, chimneyerr.ErrDenied
		}
		return Info{}, chimneyerr.New(chimneyerr.KindFilesystem, "Local.Stat", err)
	}
	kind := KindFile
	if fi.IsDir() {
		kind = KindDir
	}
	return Info{Kind: kind, Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

func (fs *Local) Open(path string) (io.ReadCloser, error) {
	full, err := fs.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, chimneyerr.ErrNotFound
		}
		if os.IsPermission(err) {
			return nil, chimneyerr.ErrDenied
		}
		return nil, chimneyerr.New(chimneyerr.KindFilesystem, "Local.Open", err)
	}
	return f, nil
}

func (fs *Local) List(path string) ([]Entry, error) {
	full, err := fs.resolve(path)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, chimneyerr.ErrNotFound
		}
		if fi, statErr := os.Stat(full); statErr == nil && !fi.IsDir() {
			return nil, chimneyerr.ErrNotDir
		}
		return nil, chimneyerr.New(chimneyerr.KindFilesystem, "Local.List", err)
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		kind := KindFile
		if info.IsDir() {
			kind = KindDir
		}
		out = append(out, Entry{Name: e.Name(), Info: Info{Kind: kind, Size: info.Size(), ModTime: info.ModTime()}})
	}
	return out, nil
}

func (fs *Local) Exists(path string) bool {
	_, err := fs.Stat(path)
	return err == nil
}
