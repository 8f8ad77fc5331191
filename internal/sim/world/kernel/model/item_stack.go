package model

// ItemStack is a quantity of one item id plus attachable metadata.
// Meta values must be JSON scalars so stacks survive container and world serialization.
type ItemStack struct {
	Item  string         `json:"item"`
	Count int            `json:"count"`
	Meta  map[string]any `json:"meta,omitempty"`
}

func (s ItemStack) IsEmpty() bool { return s.Item == "" || s.Count <= 0 }

// Clone returns a copy whose Meta can be mutated without touching s.
func (s ItemStack) Clone() ItemStack {
	out := ItemStack{Item: s.Item, Count: s.Count}
	if len(s.Meta) > 0 {
		out.Meta = make(map[string]any, len(s.Meta))
		for k, v := range s.Meta {
			out.Meta[k] = v
		}
	}
	return out
}

// Similar reports whether two stacks can be merged (same item, same metadata).
func (s ItemStack) Similar(o ItemStack) bool {
	if s.Item != o.Item || len(s.Meta) != len(o.Meta) {
		return false
	}
	for k, v := range s.Meta {
		ov, ok := o.Meta[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}
