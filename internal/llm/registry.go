package llm

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ProviderFactory builds a provider from the process environment.
type ProviderFactory func() (Provider, error)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]ProviderFactory)
)

// RegisterProvider is called from provider package init functions.
func RegisterProvider(name string, factory ProviderFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[strings.ToLower(name)] = factory
}

// Providers lists registered provider names in sorted order.
func Providers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func NewProvider(name string) (Provider, error) {
	registryMu.RLock()
	factory, ok := factories[strings.ToLower(strings.TrimSpace(name))]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported provider %q (available: %s)", name, strings.Join(Providers(), ", "))
	}
	return factory()
}
