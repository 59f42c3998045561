package logger

import "sync"

// Named loggers. Entries derived from the global logger are dropped by Init
// so they pick up the new configuration; explicit registrations survive.
var registry = struct {
	sync.Mutex
	explicit map[string]*Logger
	derived  map[string]*Logger
}{
	explicit: make(map[string]*Logger),
	derived:  make(map[string]*Logger),
}

// Register pins l under name. Get returns it until Unregister.
func Register(name string, l *Logger) {
	registry.Lock()
	defer registry.Unlock()
	registry.explicit[name] = l
}

// Unregister removes a pinned logger.
func Unregister(name string) {
	registry.Lock()
	defer registry.Unlock()
	delete(registry.explicit, name)
}

// Get returns the logger pinned under name, or the global logger tagged
// with name as its component.
func Get(name string) *Logger {
	registry.Lock()
	defer registry.Unlock()
	if l, ok := registry.explicit[name]; ok {
		return l
	}
	if l, ok := registry.derived[name]; ok {
		return l
	}
	l := GetGlobalLogger().WithComponent(name)
	registry.derived[name] = l
	return l
}

func resetDerived() {
	registry.Lock()
	defer registry.Unlock()
	registry.derived = make(map[string]*Logger)
}
