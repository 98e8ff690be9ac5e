package strategy

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"backtest_go/internal/domain"
)

// ImportableConfig is the discriminated reference used to instantiate a
// strategy from configuration: a registered name plus validated
// parameters. No source text is ever executed.
type ImportableConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params"`
}

// Builder constructs a strategy instance from validated parameters.
type Builder func(params map[string]any) (Strategy, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Builder)
)

// Register adds a named strategy builder. Registering the same name twice
// is a programming error and panics.
func Register(name string, builder Builder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(domain.NewContractError("strategy registry", "duplicate registration "+name))
	}
	registry[name] = builder
}

// Registered returns all registered strategy names, sorted.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create instantiates a strategy from its importable configuration.
// A missing or unknown name, or a builder rejecting its parameters, is a
// configuration error.
func Create(config ImportableConfig) (Strategy, error) {
	if strings.TrimSpace(config.Name) == "" {
		return nil, &domain.ConfigError{
			Field: "strategy.name", Err: fmt.Errorf("no strategy name supplied")}
	}
	registryMu.RLock()
	builder, ok := registry[config.Name]
	registryMu.RUnlock()
	if !ok {
		return nil, &domain.ConfigError{
			Field: "strategy.name", Err: fmt.Errorf("strategy %q is not registered", config.Name)}
	}
	instance, err := builder(config.Params)
	if err != nil {
		return nil, &domain.ConfigError{Field: "strategy.params", Err: err}
	}
	return instance, nil
}

// param reads a typed parameter with a default, erroring on wrong types.
func param[T any](params map[string]any, key string, fallback T) (T, error) {
	raw, ok := params[key]
	if !ok {
		return fallback, nil
	}
	value, ok := raw.(T)
	if !ok {
		return fallback, fmt.Errorf("parameter %q: expected %T, got %T", key, fallback, raw)
	}
	return value, nil
}
