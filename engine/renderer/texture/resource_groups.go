package texture

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// AutodetectResourceGroup searches every registered group in registration order.
const AutodetectResourceGroup = "Autodetect"

// DefaultResourceGroup is the group used by resources registered without an explicit group.
const DefaultResourceGroup = "General"

type resourceGroup struct {
	name string
	dirs []string
}

// ResourceGroups maps group names to ordered lists of search directories.
// It is safe for concurrent use.
type ResourceGroups struct {
	mu     sync.RWMutex
	groups []resourceGroup
}

// NewResourceGroups creates an empty set of resource groups.
func NewResourceGroups() *ResourceGroups {
	return &ResourceGroups{}
}

// AddLocation appends a search directory to a group, creating the group on first use.
//
// Parameters:
//   - group: the group name; empty means DefaultResourceGroup
//   - dir: the directory to search
func (g *ResourceGroups) AddLocation(group, dir string) {
	if group == "" || group == AutodetectResourceGroup {
		group = DefaultResourceGroup
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.groups {
		if g.groups[i].name == group {
			g.groups[i].dirs = append(g.groups[i].dirs, dir)
			return
		}
	}
	g.groups = append(g.groups, resourceGroup{name: group, dirs: []string{dir}})
}

// Groups returns the registered group names in registration order.
func (g *ResourceGroups) Groups() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, len(g.groups))
	for i, rg := range g.groups {
		names[i] = rg.name
	}
	return names
}

// Resolve finds the file called name in the given group.
//
// Parameters:
//   - name: the resource file name, relative to the group's directories
//   - group: the group to search, or AutodetectResourceGroup to search all of them
//
// Returns:
//   - string: the path of the first match
//   - error: ErrResourceNotFound if no directory contains the file
func (g *ResourceGroups) Resolve(name, group string) (string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, rg := range g.groups {
		if group != AutodetectResourceGroup && rg.name != group {
			continue
		}
		for _, dir := range rg.dirs {
			p := filepath.Join(dir, filepath.FromSlash(name))
			info, err := os.Stat(p)
			if err == nil && !info.IsDir() {
				return p, nil
			}
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("texture: stat %s: %w", p, err)
			}
		}
	}
	return "", fmt.Errorf("%w: %q in group %q", ErrResourceNotFound, name, group)
}
