package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kbukum/apifykit/logger"
)

// StorageFactory builds a backend. providerCfg is the backend's own config
// type; when it is nil the backend reads what it needs from cfg.
type StorageFactory func(cfg Config, providerCfg any, log *logger.Logger) (Storage, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]StorageFactory)
)

// RegisterFactory makes a backend available under name. Backend packages
// call it from init, so importing one for side effects is enough:
//
//	import _ "github.com/kbukum/apifykit/storage/local"
func RegisterFactory(name string, f StorageFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// Providers lists the registered backend names in order.
func Providers() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New validates cfg and builds the configured backend.
func New(cfg Config, providerCfg any, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: provider %q is not linked in (available: %s)", cfg.Provider, strings.Join(Providers(), ", "))
	}

	if log == nil {
		log = logger.Get("storage")
	} else {
		log = log.WithComponent("storage")
	}
	log.Debug("opening storage", logger.Fields("provider", cfg.Provider, "prefix", cfg.Prefix))
	return f(cfg, providerCfg, log)
}
