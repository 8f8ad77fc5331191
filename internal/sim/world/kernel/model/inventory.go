package model

const (
	DefaultInventorySlots = 36
	DefaultMaxStack       = 64
)

// Inventory is a bounded slot container (a participant's backpack).
type Inventory struct {
	Slots    []ItemStack
	MaxStack int
}

func NewInventory(slots, maxStack int) *Inventory {
	if slots <= 0 {
		slots = DefaultInventorySlots
	}
	if maxStack <= 0 {
		maxStack = DefaultMaxStack
	}
	return &Inventory{Slots: make([]ItemStack, slots), MaxStack: maxStack}
}

// Add inserts as much of s as fits and returns the remainder.
// A non-empty remainder means the container could not accept the whole stack.
func (inv *Inventory) Add(s ItemStack) ItemStack {
	if s.IsEmpty() {
		return ItemStack{}
	}
	left := s.Clone()

	// Top up similar stacks first.
	for i := range inv.Slots {
		if left.Count == 0 {
			break
		}
		cur := &inv.Slots[i]
		if cur.IsEmpty() || !cur.Similar(left) || cur.Count >= inv.MaxStack {
			continue
		}
		n := min(inv.MaxStack-cur.Count, left.Count)
		cur.Count += n
		left.Count -= n
	}
	for i := range inv.Slots {
		if left.Count == 0 {
			break
		}
		if !inv.Slots[i].IsEmpty() {
			continue
		}
		n := min(inv.MaxStack, left.Count)
		put := left.Clone()
		put.Count = n
		inv.Slots[i] = put
		left.Count -= n
	}
	if left.Count == 0 {
		return ItemStack{}
	}
	return left
}

// RemoveIf clears every slot whose stack matches pred and returns the removed stacks.
func (inv *Inventory) RemoveIf(pred func(ItemStack) bool) []ItemStack {
	var removed []ItemStack
	for i, s := range inv.Slots {
		if s.IsEmpty() || !pred(s) {
			continue
		}
		removed = append(removed, s)
		inv.Slots[i] = ItemStack{}
	}
	return removed
}

// TakeAll empties the inventory and returns its former contents in slot order.
func (inv *Inventory) TakeAll() []ItemStack {
	return inv.RemoveIf(func(ItemStack) bool { return true })
}

func (inv *Inventory) Slot(i int) (ItemStack, bool) {
	if i < 0 || i >= len(inv.Slots) {
		return ItemStack{}, false
	}
	return inv.Slots[i], true
}

func (inv *Inventory) SetSlot(i int, s ItemStack) bool {
	if i < 0 || i >= len(inv.Slots) {
		return false
	}
	if s.IsEmpty() {
		s = ItemStack{}
	}
	inv.Slots[i] = s
	return true
}

func (inv *Inventory) Count(pred func(ItemStack) bool) int {
	n := 0
	for _, s := range inv.Slots {
		if !s.IsEmpty() && pred(s) {
			n += s.Count
		}
	}
	return n
}

// Contents returns clones of the non-empty slots.
func (inv *Inventory) Contents() []ItemStack {
	out := make([]ItemStack, 0, len(inv.Slots))
	for _, s := range inv.Slots {
		if !s.IsEmpty() {
			out = append(out, s.Clone())
		}
	}
	return out
}
