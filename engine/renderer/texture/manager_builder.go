package texture

import "log/slog"

// ManagerBuilderOption is a functional option applied to a manager during construction via NewManager.
type ManagerBuilderOption func(*manager)

// WithUploader sets the Uploader that turns decoded pixels into GPU textures.
//
// Parameters:
//   - u: the uploader, typically the render system
//
// Returns:
//   - ManagerBuilderOption: a function that applies the uploader option to a manager
func WithUploader(u Uploader) ManagerBuilderOption {
	return func(m *manager) {
		m.uploader = u
	}
}

// WithResourceGroups sets the resource groups used to resolve texture names to files.
//
// Parameters:
//   - g: the resource groups
//
// Returns:
//   - ManagerBuilderOption: a function that applies the resource groups option to a manager
func WithResourceGroups(g *ResourceGroups) ManagerBuilderOption {
	return func(m *manager) {
		m.groups = g
	}
}

// WithResourceLocation adds a search directory to a resource group, creating the
// manager's resource groups if none were set.
//
// Parameters:
//   - group: the group name
//   - dir: the directory to search
//
// Returns:
//   - ManagerBuilderOption: a function that applies the location option to a manager
func WithResourceLocation(group, dir string) ManagerBuilderOption {
	return func(m *manager) {
		if m.groups == nil {
			m.groups = NewResourceGroups()
		}
		m.groups.AddLocation(group, dir)
	}
}

// WithStreamingWorkers sets the number of workers that perform residency transitions.
//
// Parameters:
//   - n: the worker count; values below 1 are raised to 1
//
// Returns:
//   - ManagerBuilderOption: a function that applies the worker count option to a manager
func WithStreamingWorkers(n int) ManagerBuilderOption {
	return func(m *manager) {
		m.workers = n
	}
}

// WithFallbackOnMissing makes failed loads upload a 1x1 opaque white placeholder and
// report Resident instead of staying on storage. The load error is still reported by Info.
//
// Returns:
//   - ManagerBuilderOption: a function that enables the fallback on a manager
func WithFallbackOnMissing() ManagerBuilderOption {
	return func(m *manager) {
		m.fallbackOnMissing = true
	}
}

// WithLogger sets the structured logger used for load and upload diagnostics.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - ManagerBuilderOption: a function that applies the logger option to a manager
func WithLogger(l *slog.Logger) ManagerBuilderOption {
	return func(m *manager) {
		if l != nil {
			m.logger = l
		}
	}
}
