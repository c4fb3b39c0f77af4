// Package normalization maps free-form configuration strings onto typed
// enumerations with consistent folding and error messages.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Fold canonicalizes raw user input for lookup: trimmed and lower-cased.
func Fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Normalizer maps folded spellings onto values of a typed enumeration,
// falling back to a default for unrecognized input.
type Normalizer[T comparable] struct {
	byKey    map[string]T
	fallback T
	keys     []string
}

// NewNormalizer builds a Normalizer over the given spellings. Keys are
// folded on entry, so callers list them in canonical form.
func NewNormalizer[T comparable](spellings map[string]T, fallback T) *Normalizer[T] {
	byKey := make(map[string]T, len(spellings))
	keys := make([]string, 0, len(spellings))
	for k, v := range spellings {
		f := Fold(k)
		byKey[f] = v
		keys = append(keys, f)
	}
	sort.Strings(keys)
	return &Normalizer[T]{byKey: byKey, fallback: fallback, keys: keys}
}

// Normalize maps raw input to its value, or the fallback when unknown.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.byKey[Fold(raw)]; ok {
		return v
	}
	return n.fallback
}

// Lookup maps raw input to its value and reports whether it was recognized.
func (n *Normalizer[T]) Lookup(raw string) (T, bool) {
	v, ok := n.byKey[Fold(raw)]
	return v, ok
}

// ValidKeys returns the recognized spellings in sorted order.
func (n *Normalizer[T]) ValidKeys() []string {
	return append([]string(nil), n.keys...)
}

// EnumNormalizer couples a Normalizer with the field it validates so
// rejections read as configuration errors.
type EnumNormalizer[T comparable] struct {
	inner *Normalizer[T]
	name  string
}

// NewEnumNormalizer builds an EnumNormalizer; name appears in rejection
// errors ("invalid fetch mode ...").
func NewEnumNormalizer[T comparable](name string, spellings map[string]T, fallback T) *EnumNormalizer[T] {
	return &EnumNormalizer[T]{inner: NewNormalizer(spellings, fallback), name: name}
}

// Normalize maps raw input to its value, or the fallback when unknown.
func (e *EnumNormalizer[T]) Normalize(raw string) T {
	return e.inner.Normalize(raw)
}

// NormalizeWithValidation maps raw input to its value, or an error naming
// the field and the accepted spellings.
func (e *EnumNormalizer[T]) NormalizeWithValidation(raw string) (T, error) {
	if v, ok := e.inner.Lookup(raw); ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q (allowed: %s)", e.name, raw, strings.Join(e.inner.ValidKeys(), "|"))
}
