package registry

import (
	"sort"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/internal/stack"
)

// AddModule registers init under name. A module registered again replaces
// the initializer but keeps its loaded state.
func (r *Registry) AddModule(name string, init ModuleInit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := r.key(name)
	if m, ok := r.modules[k]; ok {
		m.init = init
		return
	}
	r.modules[k] = &module{name: name, init: init}
}

// LoadModule runs the initializer of name once and installs the probe
// command ModuleLoaded.<name>. Loading a loaded module is a no-op.
func (r *Registry) LoadModule(name string) error {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	r.mu.RLock()
	m, ok := r.modules[r.key(name)]
	r.mu.RUnlock()
	if !ok {
		return zerror.Newf("module %s not found", name).
			WithCode(zerror.CodeModuleNotFound).
			WithDetail("module", name)
	}
	if r.IsModuleLoaded(name) {
		return nil
	}

	r.setLoading(m.name)
	err := m.init(r)
	r.setLoading("")
	if err != nil {
		return zerror.Wrap(err, "failed to load module "+m.name).WithDetail("module", m.name)
	}

	r.mu.Lock()
	m.loaded = true
	r.mu.Unlock()

	r.AddCommand(ProbePrefix+m.name, func(stack.CommandThread, string, []string) (string, error) {
		return "true", nil
	})
	r.logger.Debug("Module loaded", "module", m.name)
	return nil
}

// IsModuleLoaded reports whether name was loaded
func (r *Registry) IsModuleLoaded(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[r.key(name)]
	return ok && m.loaded
}

// Modules returns the registered module names in sorted order
func (r *Registry) Modules() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.modules))
	for _, m := range r.modules {
		names = append(names, m.name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// ModuleCommands returns the sorted names of the commands module registered
func (r *Registry) ModuleCommands(module string) []string {
	r.mu.RLock()
	var names []string
	for _, cmd := range r.commands {
		if cmd.Module != "" && r.key(cmd.Module) == r.key(module) {
			names = append(names, cmd.Name)
		}
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

func (r *Registry) setLoading(name string) {
	r.mu.Lock()
	r.loading = name
	r.mu.Unlock()
}
