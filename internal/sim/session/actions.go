package session

import (
	"siegecraft.ai/internal/protocol"
	"siegecraft.ai/internal/sim/events"
	modelpkg "siegecraft.ai/internal/sim/world/kernel/model"
)

// Result reports whether the host's default action ran. Code is a protocol error code
// when it did not.
type Result struct {
	Accepted bool
	Code     string
	Message  string
}

func accepted() Result { return Result{Accepted: true} }

func rejected(code, msg string) Result { return Result{Code: code, Message: msg} }

func suppressed() Result {
	return Result{Code: protocol.ErrSuppressed, Message: "suppressed by session rules"}
}

func claimed() Result {
	return Result{Accepted: true, Code: protocol.ErrClaimed, Message: "claimed by session rules"}
}

func unknownParticipant() Result {
	return rejected(protocol.ErrUnknownActor, "unknown participant")
}

// AddParticipant registers a participant and dispatches the join event.
func (s *Session) AddParticipant(name string, out chan []byte) *modelpkg.Participant {
	n := s.nextParticipantNum.Add(1)
	id := newParticipantID(n)
	p := modelpkg.NewParticipant(id, normalizeName(name), modelpkg.Vec3i{}, s.cfg.InventorySlots, s.cfg.MaxStack)
	p.Pos = s.spawnPoint(id)
	s.participants[id] = p
	if out != nil {
		s.clients[id] = &clientState{Out: out}
	}
	s.auditEvent(id, "JOIN", p.Pos, "", map[string]any{"name": p.Name})

	s.dispatcher.Dispatch(&events.Join{ParticipantID: id})
	s.RefreshScoreboards()
	s.logf("join %s (%s) team=%s", id, p.Name, p.TeamID)
	return p
}

// RemoveParticipant dispatches the leave event, then forgets the participant.
func (s *Session) RemoveParticipant(id string) {
	p := s.participants[id]
	if p == nil {
		return
	}
	s.dispatcher.Dispatch(&events.Leave{ParticipantID: id, Pos: p.Pos})

	s.removeFromTeam(p)
	delete(s.participants, id)
	delete(s.clients, id)
	s.auditEvent(id, "LEAVE", p.Pos, "", nil)
	s.RefreshScoreboards()
	s.logf("leave %s", id)
}

// DropSlot throws the stack in slot out of the participant's inventory.
func (s *Session) DropSlot(id string, slot int) Result {
	p, ok := s.Participant(id)
	if !ok {
		return unknownParticipant()
	}
	st, ok := p.Inventory.Slot(slot)
	if !ok || st.IsEmpty() {
		return rejected(protocol.ErrBadRequest, "empty or invalid slot")
	}
	ev := &events.DropAttempt{ParticipantID: id, Slot: slot, Stack: st.Clone()}
	s.dispatcher.Dispatch(ev)
	if ev.Cancelled() {
		return suppressed()
	}
	p.Inventory.SetSlot(slot, modelpkg.ItemStack{})
	s.dropItem(id, p.Pos, st, "DROP")
	return accepted()
}

// Pickup moves a world item entity into the picker's inventory. Pickers unknown to
// the session (mobs) take the entity away entirely when the rules allow it.
func (s *Session) Pickup(pickerID, entityID string) Result {
	e := s.items[entityID]
	if e == nil {
		return rejected(protocol.ErrBadRequest, "no such item entity")
	}
	ev := &events.Pickup{PickerID: pickerID, EntityID: entityID, Stack: e.Stack.Clone()}
	s.dispatcher.Dispatch(ev)
	if ev.Claimed {
		return claimed()
	}
	if ev.Cancelled() {
		return suppressed()
	}

	p, ok := s.Participant(pickerID)
	if !ok {
		s.RemoveItem(entityID, "TAKEN")
		return accepted()
	}
	left := p.Inventory.Add(e.Stack)
	if left.Count == e.Stack.Count {
		return rejected(protocol.ErrBadRequest, "inventory full")
	}
	if left.IsEmpty() {
		s.RemoveItem(entityID, "PICKUP")
	} else {
		e.Stack = left
	}
	return accepted()
}

// Kill runs the death sequence: collect drops, dispatch, spill the remaining drops
// where the victim fell, then respawn the victim.
func (s *Session) Kill(victimID, killerID string) Result {
	p, ok := s.Participant(victimID)
	if !ok {
		return unknownParticipant()
	}
	deathPos := p.Pos
	drops := p.Inventory.TakeAll()
	if !p.Cursor.IsEmpty() {
		drops = append(drops, p.Cursor)
		p.Cursor = modelpkg.ItemStack{}
	}
	ev := &events.Death{VictimID: victimID, KillerID: killerID, Pos: deathPos, Drops: drops}
	s.dispatcher.Dispatch(ev)

	for _, d := range ev.Drops {
		s.dropItem(victimID, deathPos, d, "DEATH")
	}
	p.Pos = s.spawnPoint(p.ID)
	s.auditEvent(victimID, "DEATH", deathPos, "", map[string]any{"killer": killerID, "drops": len(ev.Drops)})
	return accepted()
}

// Click swaps the clicked slot with the cursor.
func (s *Session) Click(id string, slot int, top events.InventoryKind) Result {
	p, ok := s.Participant(id)
	if !ok {
		return unknownParticipant()
	}
	cur, ok := p.Inventory.Slot(slot)
	if !ok {
		return rejected(protocol.ErrBadRequest, "invalid slot")
	}
	ev := &events.Click{ParticipantID: id, Slot: slot, Current: cur.Clone(), Cursor: p.Cursor.Clone(), TopInventory: top}
	s.dispatcher.Dispatch(ev)
	if ev.Cancelled() {
		return suppressed()
	}
	p.Inventory.SetSlot(slot, p.Cursor)
	p.Cursor = cur
	return accepted()
}

// Drag spreads the cursor stack evenly over the given slots; the remainder stays on the cursor.
func (s *Session) Drag(id string, slots []int, inv events.InventoryKind) Result {
	p, ok := s.Participant(id)
	if !ok {
		return unknownParticipant()
	}
	old := p.Cursor
	if old.IsEmpty() {
		return rejected(protocol.ErrBadRequest, "empty cursor")
	}
	var targets []int
	seen := map[int]bool{}
	for _, i := range slots {
		st, ok := p.Inventory.Slot(i)
		if !ok || seen[i] || (!st.IsEmpty() && !st.Similar(old)) {
			continue
		}
		seen[i] = true
		targets = append(targets, i)
	}
	if len(targets) == 0 {
		return rejected(protocol.ErrBadRequest, "no target slots")
	}
	per := old.Count / len(targets)
	if per == 0 {
		per = 1
		targets = targets[:old.Count]
	}
	plan := make([]int, 0, len(targets))
	placed := 0
	for _, i := range targets {
		st, _ := p.Inventory.Slot(i)
		if min(per, p.Inventory.MaxStack-st.Count) <= 0 {
			continue
		}
		plan = append(plan, i)
		placed += min(per, p.Inventory.MaxStack-st.Count)
	}
	if placed == 0 {
		return rejected(protocol.ErrBadRequest, "target slots full")
	}
	next := old.Clone()
	next.Count = old.Count - placed
	if next.Count == 0 {
		next = modelpkg.ItemStack{}
	}

	ev := &events.Drag{ParticipantID: id, Slots: plan, OldCursor: old.Clone(), Cursor: next.Clone(), Inventory: inv}
	s.dispatcher.Dispatch(ev)
	if ev.Cancelled() {
		return suppressed()
	}
	for _, i := range plan {
		st, _ := p.Inventory.Slot(i)
		put := old.Clone()
		put.Count = st.Count + min(per, p.Inventory.MaxStack-st.Count)
		p.Inventory.SetSlot(i, put)
	}
	p.Cursor = next
	return accepted()
}

// Move updates the participant's position. No rule observes movement.
func (s *Session) Move(id string, pos modelpkg.Vec3i) Result {
	p, ok := s.Participant(id)
	if !ok {
		return unknownParticipant()
	}
	p.Pos = pos
	return accepted()
}
