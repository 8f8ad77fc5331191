package superitems

import (
	"log"

	"siegecraft.ai/internal/sim/superitems/tag"
	modelpkg "siegecraft.ai/internal/sim/world/kernel/model"
)

const (
	AuditGrant  = "SUPERITEM_GRANT"
	AuditRevoke = "SUPERITEM_REVOKE"
	AuditSpawn  = "SUPERITEM_SPAWN"
	AuditPickup = "SUPERITEM_PICKUP"
)

// holderRef is a weak reference to a participant; the session owns participant lifecycle.
type holderRef struct {
	id string
	ok bool
}

func noHolder() holderRef               { return holderRef{} }
func holderOf(id string) holderRef      { return holderRef{id: id, ok: true} }
func (h holderRef) get() (string, bool) { return h.id, h.ok }
func (h holderRef) is(id string) bool   { return h.ok && h.id == id }

// SuperItem is the ownership state of one super item type.
//
// holder and lyingInWorld may both be set: when a grant cannot fit the instance in
// the holder's inventory it is placed at their feet as a reservation only they can pick up.
type SuperItem struct {
	key      string
	kind     Kind
	host     Host
	registry Registry
	audit    AuditFunc
	logger   *log.Logger

	holder       holderRef
	lyingInWorld bool
	// entityID is the world entity of the lying instance, if any.
	entityID string
}

func (s *SuperItem) Key() string         { return s.key }
func (s *SuperItem) Kind() Kind          { return s.kind }
func (s *SuperItem) DisplayName() string { return s.kind.DisplayName() }

// Holder returns the current holder id; ok is false when the item is unowned.
func (s *SuperItem) Holder() (id string, ok bool) { return s.holder.get() }

func (s *SuperItem) LyingInWorld() bool { return s.lyingInWorld }

// WorldEntity returns the entity id of the instance lying in the world.
func (s *SuperItem) WorldEntity() (string, bool) {
	return s.entityID, s.lyingInWorld && s.entityID != ""
}

// Item returns a freshly tagged instance cloned from the kind's template.
func (s *SuperItem) Item() modelpkg.ItemStack {
	return tag.Tag(s.kind.Template(), s.key)
}

func (s *SuperItem) isMine(st modelpkg.ItemStack) bool {
	return tag.Matches(st, s.key)
}

// Revoke strips every instance from the holder, detaches the presentation and clears
// the holder. It is a no-op when the item is unowned and never touches lyingInWorld.
func (s *SuperItem) Revoke(reason string) {
	id, ok := s.holder.get()
	if !ok {
		return
	}
	var pos modelpkg.Vec3i
	removed := 0
	if p, found := s.host.Participant(id); found {
		pos = p.Pos
		if p.Inventory != nil {
			removed = len(p.Inventory.RemoveIf(s.isMine))
		}
		if s.isMine(p.Cursor) {
			p.Cursor = modelpkg.ItemStack{}
			removed++
		}
		s.kind.RemoveDisplay(p)
	}
	s.holder = noHolder()
	s.emit(id, AuditRevoke, pos, reason, map[string]any{"removed": removed})
}

// Grant makes p the holder, revoking any previous holder first.
func (s *SuperItem) Grant(p *modelpkg.Participant, reason string) {
	if p == nil {
		return
	}
	if s.holder.ok {
		s.Revoke(reason)
	}
	s.holder = holderOf(p.ID)

	left := p.Inventory.Add(s.Item())
	if left.IsEmpty() {
		s.clearWorldInstance("SUPERSEDED")
	} else {
		s.SpawnInWorld(p.Pos, "CONTAINER_FULL")
	}
	s.kind.Display(p)
	s.emit(p.ID, AuditGrant, p.Pos, reason, map[string]any{"reserved": !left.IsEmpty()})
	s.host.RefreshScoreboards()
}

// SpawnInWorld places a glowing, never-expiring instance at pos. It does not touch the holder.
// A previously lying instance is removed so only one physical instance exists.
func (s *SuperItem) SpawnInWorld(pos modelpkg.Vec3i, reason string) {
	s.clearWorldInstance("SUPERSEDED")
	s.entityID = s.host.PlaceItem(pos, s.Item(), reason)
	s.lyingInWorld = true
	s.emit("WORLD", AuditSpawn, pos, reason, map[string]any{"entity_id": s.entityID})
}

func (s *SuperItem) clearWorldInstance(reason string) {
	if s.entityID != "" {
		s.host.RemoveItem(s.entityID, reason)
		s.entityID = ""
	}
	s.lyingInWorld = false
}

func (s *SuperItem) emit(actor, action string, pos modelpkg.Vec3i, reason string, details map[string]any) {
	if s.logger != nil {
		s.logger.Printf("superitem %s: %s actor=%s reason=%s", s.key, action, actor, reason)
	}
	if s.audit == nil {
		return
	}
	if details == nil {
		details = map[string]any{}
	}
	details["key"] = s.key
	s.audit(actor, action, pos, reason, details)
}
