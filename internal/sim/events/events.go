// Package events defines the host lifecycle events routed to session subsystems
// and the two-phase dispatcher that orders their handlers.
package events

import modelpkg "siegecraft.ai/internal/sim/world/kernel/model"

type Type string

const (
	TypeDropAttempt Type = "DROP_ATTEMPT"
	TypePickup      Type = "PICKUP"
	TypeDeath       Type = "DEATH"
	TypeJoin        Type = "JOIN"
	TypeLeave       Type = "LEAVE"
	TypeClick       Type = "CLICK"
	TypeDrag        Type = "DRAG"
)

type Event interface {
	Type() Type
}

// Cancellable events let a handler suppress the host's default action.
type Cancellable interface {
	Event
	Cancel()
	Cancelled() bool
}

type cancelFlag struct{ cancelled bool }

func (c *cancelFlag) Cancel()         { c.cancelled = true }
func (c *cancelFlag) Cancelled() bool { return c.cancelled }

// InventoryKind names the container context a rearrangement happens in.
type InventoryKind string

const (
	// InventoryCrafting is the participant's own inventory view (crafting grid and equipment).
	InventoryCrafting InventoryKind = "CRAFTING"
	InventoryChest    InventoryKind = "CHEST"
	InventoryFurnace  InventoryKind = "FURNACE"
)

// DropAttempt is a participant trying to throw a stack out of their inventory.
type DropAttempt struct {
	cancelFlag
	ParticipantID string
	Slot          int
	Stack         modelpkg.ItemStack
}

func (*DropAttempt) Type() Type { return TypeDropAttempt }

// Pickup is a passive acquisition of a world item entity.
type Pickup struct {
	cancelFlag
	PickerID string
	EntityID string
	Stack    modelpkg.ItemStack
	// Claimed is set when a handler moved the stack into the picker's inventory itself.
	Claimed bool
}

func (*Pickup) Type() Type { return TypePickup }

// Death carries the host's computed death drops; handlers may strip entries.
type Death struct {
	VictimID string
	KillerID string // empty when there is no killer
	Pos      modelpkg.Vec3i
	Drops    []modelpkg.ItemStack
}

func (*Death) Type() Type { return TypeDeath }

func (d *Death) RemoveDropsIf(pred func(modelpkg.ItemStack) bool) int {
	kept := d.Drops[:0]
	removed := 0
	for _, s := range d.Drops {
		if pred(s) {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	d.Drops = kept
	return removed
}

type Join struct {
	ParticipantID string
}

func (*Join) Type() Type { return TypeJoin }

// Leave is dispatched while the participant is still in the session directory.
type Leave struct {
	ParticipantID string
	Pos           modelpkg.Vec3i
}

func (*Leave) Type() Type { return TypeLeave }

type Click struct {
	cancelFlag
	ParticipantID string
	Slot          int
	Current       modelpkg.ItemStack
	Cursor        modelpkg.ItemStack
	TopInventory  InventoryKind
}

func (*Click) Type() Type { return TypeClick }

type Drag struct {
	cancelFlag
	ParticipantID string
	Slots         []int
	OldCursor     modelpkg.ItemStack
	Cursor        modelpkg.ItemStack
	Inventory     InventoryKind
}

func (*Drag) Type() Type { return TypeDrag }
