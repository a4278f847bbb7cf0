package algo

import "github.com/zer0main/npge/config"

// Meta is the configuration registry options resolve "$NAME" defaults
// against. The zero-argument constructor binds to the process-wide
// viper-backed registry; tests pass their own values instead.
type Meta struct {
	values map[string]interface{}
}

// NewMeta returns a registry bound to the global configuration
func NewMeta() *Meta {
	return &Meta{}
}

// NewLocalMeta returns a detached registry for embedded use
func NewLocalMeta(values map[string]interface{}) *Meta {
	return &Meta{values: values}
}

// Get resolves a global key. Local values shadow the process
// configuration; the resolution happens on every read, so later
// updates to the registry are observed.
func (m *Meta) Get(key string) (interface{}, bool) {
	if m.values != nil {
		v, ok := m.values[key]
		return v, ok
	}
	if !config.Has(key) {
		return nil, false
	}
	return config.Get(key), true
}

// Set stores a value in the registry
func (m *Meta) Set(key string, value interface{}) {
	if m.values != nil {
		m.values[key] = value
		return
	}
	config.Set(key, value)
}
