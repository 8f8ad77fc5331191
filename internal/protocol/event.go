package protocol

// Event kinds carried by EVENT messages.
const (
	EventDropAttempt = "DROP_ATTEMPT"
	EventPickup      = "PICKUP"
	EventDeath       = "DEATH"
	EventClick       = "CLICK"
	EventDrag        = "DRAG"
	EventMove        = "MOVE"
)

// EVENT (client -> server): one host event reported by the participant's client.
type EventMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id,omitempty"`
	Kind            string `json:"kind"`

	Slot     int        `json:"slot,omitempty"`
	Slots    []int      `json:"slots,omitempty"`
	Stack    *ItemStack `json:"stack,omitempty"`
	EntityID string     `json:"entity_id,omitempty"`
	KillerID string     `json:"killer_id,omitempty"`
	Pos      *[3]int    `json:"pos,omitempty"`

	Current   *ItemStack `json:"current,omitempty"`
	Cursor    *ItemStack `json:"cursor,omitempty"`
	OldCursor *ItemStack `json:"old_cursor,omitempty"`
	Inventory string     `json:"inventory,omitempty"`
}

type ItemStack struct {
	Item  string         `json:"item"`
	Count int            `json:"count"`
	Meta  map[string]any `json:"meta,omitempty"`
}
