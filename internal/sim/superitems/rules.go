package superitems

import (
	"siegecraft.ai/internal/sim/events"
	"siegecraft.ai/internal/sim/superitems/tag"
)

// Listen binds the transition rules to d.
//
// Death and join run in the monitor phase: the join rule must observe team
// assignment and every other item's normal-phase reaction before it claims a team slot.
func (s *SuperItem) Listen(d *events.Dispatcher) {
	owner := "superitem:" + s.key
	d.Register(events.TypeDropAttempt, events.PhaseNormal, owner, func(ev events.Event) { s.OnDropAttempt(ev.(*events.DropAttempt)) })
	d.Register(events.TypePickup, events.PhaseNormal, owner, func(ev events.Event) { s.OnPickup(ev.(*events.Pickup)) })
	d.Register(events.TypeLeave, events.PhaseNormal, owner, func(ev events.Event) { s.OnLeave(ev.(*events.Leave)) })
	d.Register(events.TypeClick, events.PhaseNormal, owner, func(ev events.Event) { s.OnClick(ev.(*events.Click)) })
	d.Register(events.TypeDrag, events.PhaseNormal, owner, func(ev events.Event) { s.OnDrag(ev.(*events.Drag)) })
	d.Register(events.TypeDeath, events.PhaseMonitor, owner, func(ev events.Event) { s.OnDeath(ev.(*events.Death)) })
	d.Register(events.TypeJoin, events.PhaseMonitor, owner, func(ev events.Event) { s.OnJoin(ev.(*events.Join)) })
}

// OnDropAttempt: a super item can never be thrown away.
func (s *SuperItem) OnDropAttempt(ev *events.DropAttempt) {
	if tag.IsTagged(ev.Stack) {
		ev.Cancel()
	}
}

func (s *SuperItem) OnPickup(ev *events.Pickup) {
	if !s.isMine(ev.Stack) {
		return
	}
	p, ok := s.host.Participant(ev.PickerID)
	if !ok {
		ev.Cancel()
		return
	}

	if !s.holder.ok && p.HasTeam() && !s.registry.TeamHasSuperItem(p.TeamID) {
		ev.Cancel()
		// Consume the world instance before granting so a container-full grant can
		// place a fresh one.
		s.consumeEntity(ev.EntityID, "PICKUP")
		s.emit(p.ID, AuditPickup, p.Pos, "CLAIM", map[string]any{"entity_id": ev.EntityID})
		s.Grant(p, "PICKUP")
		ev.Claimed = true
		return
	}

	if s.holder.is(p.ID) {
		// The holder recovers a reserved instance.
		ev.Cancel()
		if left := p.Inventory.Add(s.Item()); !left.IsEmpty() {
			return
		}
		s.consumeEntity(ev.EntityID, "PICKUP")
		s.emit(p.ID, AuditPickup, p.Pos, "RECOVER", map[string]any{"entity_id": ev.EntityID})
		ev.Claimed = true
		return
	}

	ev.Cancel()
}

func (s *SuperItem) consumeEntity(entityID, reason string) {
	if entityID != "" && entityID != s.entityID {
		s.host.RemoveItem(entityID, reason)
	}
	s.clearWorldInstance(reason)
}

func (s *SuperItem) OnDeath(ev *events.Death) {
	if !s.holder.is(ev.VictimID) {
		return
	}
	s.Revoke("DEATH")
	ev.RemoveDropsIf(s.isMine)

	killer, ok := s.host.Participant(ev.KillerID)
	if ev.KillerID == "" || !ok {
		s.SpawnInWorld(ev.Pos, "DEATH")
		s.host.RefreshScoreboards()
		return
	}
	if killer.HasTeam() && s.registry.TeamHasSuperItem(killer.TeamID) {
		s.SpawnInWorld(ev.Pos, "DEATH")
		s.host.RefreshScoreboards()
		return
	}
	s.Grant(killer, "KILL")
}

func (s *SuperItem) OnJoin(ev *events.Join) {
	p, ok := s.host.Participant(ev.ParticipantID)
	if !ok {
		return
	}
	if p.HasTeam() && !s.registry.TeamHasSuperItem(p.TeamID) && !s.holder.ok && !s.lyingInWorld {
		s.Grant(p, "JOIN")
		return
	}
	// A teammate joining while the item is held picks up the holder's presentation.
	id, held := s.holder.get()
	if !held || id == p.ID || !p.HasTeam() {
		return
	}
	if holder, found := s.host.Participant(id); found && holder.TeamID == p.TeamID {
		s.kind.Display(holder)
	}
}

func (s *SuperItem) OnLeave(ev *events.Leave) {
	if !s.holder.is(ev.ParticipantID) {
		return
	}
	pos := ev.Pos
	if p, ok := s.host.Participant(ev.ParticipantID); ok {
		pos = p.Pos
	}
	s.Revoke("LEAVE")
	s.SpawnInWorld(pos, "LEAVE")
	s.host.RefreshScoreboards()
}

func (s *SuperItem) OnClick(ev *events.Click) {
	if !tag.IsTagged(ev.Current) && !tag.IsTagged(ev.Cursor) {
		return
	}
	if ev.TopInventory != events.InventoryCrafting {
		ev.Cancel()
	}
}

func (s *SuperItem) OnDrag(ev *events.Drag) {
	if !tag.IsTagged(ev.OldCursor) && !tag.IsTagged(ev.Cursor) {
		return
	}
	if ev.Inventory != events.InventoryCrafting {
		ev.Cancel()
	}
}
