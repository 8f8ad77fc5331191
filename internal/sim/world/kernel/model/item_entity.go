package model

// ItemEntity is an item stack lying in the world (death drops, discarded items, super items).
type ItemEntity struct {
	EntityID    string
	Pos         Vec3i
	Stack       ItemStack
	CreatedTick uint64
	// ExpiresTick is the tick the entity despawns at; 0 means it never expires.
	ExpiresTick uint64
	Glowing     bool
}

func (e *ItemEntity) ID() string { return e.EntityID }
