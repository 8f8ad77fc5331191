package session

import (
	"fmt"

	"siegecraft.ai/internal/sim/world/feature/entities/items"
	modelpkg "siegecraft.ai/internal/sim/world/kernel/model"
)

// Participant implements superitems.Directory.
func (s *Session) Participant(id string) (*modelpkg.Participant, bool) {
	if id == "" {
		return nil, false
	}
	p, ok := s.participants[id]
	return p, ok
}

func (s *Session) TeamMembers(teamID string) []*modelpkg.Participant {
	t := s.teams[teamID]
	if t == nil {
		return nil
	}
	out := make([]*modelpkg.Participant, 0, t.Size())
	for _, id := range t.MemberIDs() {
		if p := s.participants[id]; p != nil {
			out = append(out, p)
		}
	}
	return out
}

// PlaceItem spawns a glowing, never-expiring instance.
func (s *Session) PlaceItem(pos modelpkg.Vec3i, stack modelpkg.ItemStack, reason string) string {
	return items.Spawn(s.tick.Load(), "WORLD", pos, stack, items.SpawnOptions{Glowing: true}, reason,
		s.items, s.itemsAt, s.newItemID, s.itemAudit)
}

func (s *Session) RemoveItem(entityID string, reason string) {
	items.Remove(s.tick.Load(), "WORLD", entityID, reason, s.items, s.itemsAt, s.itemAudit)
}

// dropItem spawns an ordinary, expiring item entity.
func (s *Session) dropItem(actor string, pos modelpkg.Vec3i, stack modelpkg.ItemStack, reason string) string {
	return items.Spawn(s.tick.Load(), actor, pos, stack, items.SpawnOptions{TTLTicks: uint64(s.cfg.ItemTTLTicks)}, reason,
		s.items, s.itemsAt, s.newItemID, s.itemAudit)
}

func (s *Session) newItemID() string {
	n := s.nextItemNum.Add(1)
	return fmt.Sprintf("IT%d", n)
}
