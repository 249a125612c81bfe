// Package media embeds the default shader folders of the material system.
//
// The tree mirrors the on-disk media layout: Hlms/Common/<syntax> and Hlms/Common/Any hold
// shared pieces, Hlms/Pbs/Any and Hlms/Pbs/Any/Main the PBS pieces, Hlms/Wind/Any the wind
// pieces, and Hlms/Pbs/<syntax> the templates.
package media

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// FS is the embedded media root.
//
//go:embed Hlms
var FS embed.FS

// Sub returns the folder dir of root. Path segments that do not exist with the exact case
// are matched case-insensitively, so "Hlms/pbs/GLSL" finds "Hlms/Pbs/GLSL" on every
// filesystem.
//
// Parameters:
//   - root: the media root
//   - dir: a slash-separated folder path relative to root
//
// Returns:
//   - fs.FS: the folder
//   - error: fs.ErrNotExist wrapped with the path if a segment has no match
func Sub(root fs.FS, dir string) (fs.FS, error) {
	resolved, err := Resolve(root, dir)
	if err != nil {
		return nil, err
	}
	return fs.Sub(root, resolved)
}

// Resolve returns the exact-case path of dir in root, matching segments the way Sub does.
//
// Parameters:
//   - root: the media root
//   - dir: a slash-separated folder path relative to root
//
// Returns:
//   - string: the slash-separated path as it exists in root
//   - error: fs.ErrNotExist wrapped with the path if a segment has no match
func Resolve(root fs.FS, dir string) (string, error) {
	resolved := "."
	for _, seg := range strings.Split(path.Clean(dir), "/") {
		if seg == "." {
			continue
		}
		next := path.Join(resolved, seg)
		if info, err := fs.Stat(root, next); err == nil && info.IsDir() {
			resolved = next
			continue
		}
		entries, err := fs.ReadDir(root, resolved)
		if err != nil {
			return "", fmt.Errorf("media: open %s: %w", dir, err)
		}
		found := false
		for _, e := range entries {
			if e.IsDir() && strings.EqualFold(e.Name(), seg) {
				resolved, found = path.Join(resolved, e.Name()), true
				break
			}
		}
		if !found {
			return "", fmt.Errorf("media: open %s: %w", dir, fs.ErrNotExist)
		}
	}
	return resolved, nil
}
