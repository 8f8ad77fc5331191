package model

import "testing"

func TestInventoryAdd_MergesThenFillsEmptySlots(t *testing.T) {
	inv := NewInventory(2, 10)
	if left := inv.Add(ItemStack{Item: "COAL", Count: 8}); !left.IsEmpty() {
		t.Fatalf("unexpected remainder %+v", left)
	}
	left := inv.Add(ItemStack{Item: "COAL", Count: 15})
	if left.Count != 3 {
		t.Fatalf("remainder: got %d want 3", left.Count)
	}
	if inv.Slots[0].Count != 10 || inv.Slots[1].Count != 10 {
		t.Fatalf("slots: %+v", inv.Slots)
	}
}

func TestInventoryAdd_FullReturnsWholeStack(t *testing.T) {
	inv := NewInventory(1, 1)
	inv.Add(ItemStack{Item: "PLANK", Count: 1})
	in := ItemStack{Item: "HORN", Count: 1, Meta: map[string]any{"k": "v"}}
	left := inv.Add(in)
	if left.Count != 1 || left.Meta["k"] != "v" {
		t.Fatalf("remainder: %+v", left)
	}
}

func TestInventoryAdd_DoesNotMergeDifferentMeta(t *testing.T) {
	inv := NewInventory(2, 64)
	inv.Add(ItemStack{Item: "HORN", Count: 1, Meta: map[string]any{"tag": "a"}})
	inv.Add(ItemStack{Item: "HORN", Count: 1})
	if inv.Slots[0].Count != 1 || inv.Slots[1].Count != 1 {
		t.Fatalf("stacks with different meta merged: %+v", inv.Slots)
	}
}

func TestItemStackClone_IsolatesMeta(t *testing.T) {
	a := ItemStack{Item: "X", Count: 1, Meta: map[string]any{"k": "v"}}
	b := a.Clone()
	b.Meta["k"] = "changed"
	if a.Meta["k"] != "v" {
		t.Fatalf("clone shared meta")
	}
}

func TestRemoveIf(t *testing.T) {
	inv := NewInventory(3, 64)
	inv.Add(ItemStack{Item: "A", Count: 1})
	inv.SetSlot(2, ItemStack{Item: "B", Count: 2})
	got := inv.RemoveIf(func(s ItemStack) bool { return s.Item == "B" })
	if len(got) != 1 || got[0].Count != 2 {
		t.Fatalf("removed: %+v", got)
	}
	if len(inv.Contents()) != 1 {
		t.Fatalf("contents: %+v", inv.Contents())
	}
}

func TestParticipantEffects_RemoveOnlyOwnSource(t *testing.T) {
	p := NewParticipant("P1", "alice", Vec3i{}, 0, 0)
	p.AddEffect("GLOW", "horn")
	p.RemoveEffect("GLOW", "shield")
	if !p.HasEffect("GLOW") {
		t.Fatalf("effect removed by foreign source")
	}
	p.RemoveEffect("GLOW", "horn")
	if p.HasEffect("GLOW") {
		t.Fatalf("effect not removed")
	}
}
