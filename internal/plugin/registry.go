// Package plugin holds the in-memory registry of plugins available to the
// agent runtime.
package plugin

import (
	"sort"
	"sync"
)

// Info describes one registered plugin.
type Info struct {
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Active   bool              `json:"active"`
	Settings map[string]string `json:"settings,omitempty"`
}

// Registry stores plugin records keyed by name. All methods are safe for
// concurrent use; writes are serialized by the mutex.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]*Info
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]*Info)}
}

// Register adds a plugin. Registering an existing name is a no-op.
func (r *Registry) Register(name, pluginType string, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plugins[name]; ok {
		return
	}
	r.plugins[name] = &Info{
		Name:     name,
		Type:     pluginType,
		Active:   active,
		Settings: make(map[string]string),
	}
}

// SetActive toggles a plugin's active flag. Unknown names are ignored.
func (r *Registry) SetActive(name string, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if info, ok := r.plugins[name]; ok {
		info.Active = active
	}
}

// IsActive reports whether a plugin is active; unknown names report false.
func (r *Registry) IsActive(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if info, ok := r.plugins[name]; ok {
		return info.Active
	}
	return false
}

// ListActive returns the sorted names of active plugins.
func (r *Registry) ListActive() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.plugins))
	for name, info := range r.plugins {
		if info.Active {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ListAll returns the sorted names of every registered plugin.
func (r *Registry) ListAll() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetSetting stores a key/value setting on a plugin. Unknown names are
// ignored.
func (r *Registry) SetSetting(name, key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if info, ok := r.plugins[name]; ok {
		info.Settings[key] = value
	}
}

// GetSetting returns a plugin setting, or the empty string when either the
// plugin or the key is unknown.
func (r *Registry) GetSetting(name, key string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if info, ok := r.plugins[name]; ok {
		return info.Settings[key]
	}
	return ""
}

// Get returns a snapshot of one plugin record.
func (r *Registry) Get(name string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.plugins[name]
	if !ok {
		return Info{}, false
	}
	snapshot := Info{
		Name:     info.Name,
		Type:     info.Type,
		Active:   info.Active,
		Settings: make(map[string]string, len(info.Settings)),
	}
	for k, v := range info.Settings {
		snapshot.Settings[k] = v
	}
	return snapshot, true
}
