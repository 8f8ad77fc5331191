// Package tag stamps and recognizes the super item identity key in item metadata.
package tag

import modelpkg "siegecraft.ai/internal/sim/world/kernel/model"

const (
	Namespace = "siegecraft"
	Field     = "superitem"
)

// MetaKey is the two-part metadata key ("<namespace>:superitem") holding the type key.
var MetaKey = Namespace + ":" + Field

// Tag returns a clone of s carrying typeKey. s itself is never mutated.
func Tag(s modelpkg.ItemStack, typeKey string) modelpkg.ItemStack {
	out := s.Clone()
	if out.Meta == nil {
		out.Meta = map[string]any{}
	}
	out.Meta[MetaKey] = typeKey
	return out
}

// KeyOf returns the stamped type key. ok is false when the tag is absent or not a string.
func KeyOf(s modelpkg.ItemStack) (string, bool) {
	if s.IsEmpty() || s.Meta == nil {
		return "", false
	}
	v, ok := s.Meta[MetaKey]
	if !ok {
		return "", false
	}
	key, ok := v.(string)
	return key, ok
}

// IsTagged reports whether s carries any super item tag.
func IsTagged(s modelpkg.ItemStack) bool {
	_, ok := KeyOf(s)
	return ok
}

// Matches reports whether s carries exactly typeKey.
func Matches(s modelpkg.ItemStack, typeKey string) bool {
	key, ok := KeyOf(s)
	return ok && key == typeKey
}
