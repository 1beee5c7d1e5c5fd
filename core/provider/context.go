package provider

import "maps"

// Context is threaded through every resolution and handed to builders. It
// exposes environment values only; none of the built-in builders read it.
type Context interface {
	EnvironmentValue(name string) (string, bool)
}

type mapContext map[string]string

func (c mapContext) EnvironmentValue(name string) (string, bool) {
	v, ok := c[name]
	return v, ok
}

// NewContext returns a Context over a copy of values.
func NewContext(values map[string]string) Context {
	return mapContext(maps.Clone(values))
}

// EmptyContext has no environment values.
var EmptyContext Context = mapContext(nil)
