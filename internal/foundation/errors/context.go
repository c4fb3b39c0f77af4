package errors

import "maps"

// ErrorContext carries structured key-value details attached to an error.
// A nil ErrorContext behaves like an empty one.
type ErrorContext map[string]any

// Set stores a value under key, allocating the map when needed, and returns
// the context for chaining.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext, 1)
	}
	c[key] = value
	return c
}

// Get returns the value stored under key.
func (c ErrorContext) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c[key]
	return v, ok
}

// GetString returns the value under key when it is a string.
func (c ErrorContext) GetString(key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Merge returns a context holding both c and other, with other winning on
// shared keys. Neither input is mutated.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	switch {
	case c == nil:
		return other
	case other == nil:
		return c
	}
	out := make(ErrorContext, len(c)+len(other))
	maps.Copy(out, c)
	maps.Copy(out, other)
	return out
}
