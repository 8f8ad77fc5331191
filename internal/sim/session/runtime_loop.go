package session

import (
	"context"
	"encoding/json"
	"time"

	"siegecraft.ai/internal/protocol"
	"siegecraft.ai/internal/sim/events"
	"siegecraft.ai/internal/sim/world/feature/entities/items"
	modelpkg "siegecraft.ai/internal/sim/world/kernel/model"
)

type JoinRequest struct {
	Name string
	Out  chan []byte
	Resp chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
}

type EventEnvelope struct {
	ParticipantID string
	Msg           protocol.EventMsg
}

func (s *Session) Join() chan<- JoinRequest    { return s.join }
func (s *Session) Leave() chan<- string        { return s.leave }
func (s *Session) Inbox() chan<- EventEnvelope { return s.inbox }

// Done is closed when Run returns. Senders on Join, Leave and Inbox select on it
// so they never block on a session that stopped draining.
func (s *Session) Done() <-chan struct{} { return s.done }

// Run owns all session state until ctx is cancelled or Stop is called. It must be
// called at most once.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	interval := time.Second / time.Duration(s.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingJoins []JoinRequest
	var pendingLeaves []string
	var pendingEvents []EventEnvelope

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return nil
		case req := <-s.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-s.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-s.inbox:
			pendingEvents = append(pendingEvents, env)
		case <-ticker.C:
			s.step(pendingJoins, pendingLeaves, pendingEvents)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingEvents = pendingEvents[:0]
		}
	}
}

func (s *Session) Stop() { close(s.stop) }

// StepOnce advances the session by a single tick using the same ordering as Run.
func (s *Session) StepOnce(joins []JoinRequest, leaves []string, evs []EventEnvelope) uint64 {
	tick := s.tick.Load()
	s.step(joins, leaves, evs)
	return tick
}

// step applies joins, then events, then leaves, then expires old item entities.
func (s *Session) step(joins []JoinRequest, leaves []string, evs []EventEnvelope) {
	for _, req := range joins {
		p := s.AddParticipant(req.Name, req.Out)
		if req.Resp != nil {
			req.Resp <- JoinResponse{Welcome: s.buildWelcome(p)}
		}
	}
	for _, env := range evs {
		res := s.HandleEvent(env.ParticipantID, env.Msg)
		s.ack(env.ParticipantID, env.Msg.ID, res)
		s.recordJournal(env, res)
	}
	for _, id := range leaves {
		s.RemoveParticipant(id)
	}

	nowTick := s.tick.Load()
	items.CleanupExpired(nowTick, s.items, s.itemsAt, func(nowTick uint64, actor, id, reason string) {
		items.Remove(nowTick, actor, id, reason, s.items, s.itemsAt, s.itemAudit)
	})
	s.tick.Add(1)
}

// HandleEvent maps one client EVENT onto the matching default action.
func (s *Session) HandleEvent(participantID string, msg protocol.EventMsg) Result {
	switch msg.Kind {
	case protocol.EventDropAttempt:
		return s.DropSlot(participantID, msg.Slot)
	case protocol.EventPickup:
		if msg.EntityID == "" {
			return rejected(protocol.ErrBadRequest, "missing entity_id")
		}
		return s.Pickup(participantID, msg.EntityID)
	case protocol.EventDeath:
		return s.Kill(participantID, msg.KillerID)
	case protocol.EventClick:
		inv, ok := inventoryKind(msg.Inventory)
		if !ok {
			return rejected(protocol.ErrBadRequest, "unknown inventory")
		}
		return s.Click(participantID, msg.Slot, inv)
	case protocol.EventDrag:
		inv, ok := inventoryKind(msg.Inventory)
		if !ok {
			return rejected(protocol.ErrBadRequest, "unknown inventory")
		}
		return s.Drag(participantID, msg.Slots, inv)
	case protocol.EventMove:
		if msg.Pos == nil {
			return rejected(protocol.ErrBadRequest, "missing pos")
		}
		return s.Move(participantID, modelpkg.Vec3iFromArray(*msg.Pos))
	default:
		return rejected(protocol.ErrBadRequest, "unknown event kind")
	}
}

func inventoryKind(v string) (events.InventoryKind, bool) {
	switch events.InventoryKind(v) {
	case "", events.InventoryCrafting:
		return events.InventoryCrafting, true
	case events.InventoryChest, events.InventoryFurnace:
		return events.InventoryKind(v), true
	}
	return "", false
}

func (s *Session) ack(participantID, reqID string, res Result) {
	c := s.clients[participantID]
	if c == nil || c.Out == nil {
		return
	}
	b, err := json.Marshal(protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          reqID,
		Accepted:        res.Accepted,
		Code:            res.Code,
		Message:         res.Message,
		ServerTick:      s.tick.Load(),
	})
	if err != nil {
		return
	}
	select {
	case c.Out <- b:
	default:
	}
}

func (s *Session) recordJournal(env EventEnvelope, res Result) {
	if s.journal == nil {
		return
	}
	err := s.journal.WriteJournal(JournalEntry{
		SessionID:     s.id,
		Tick:          s.tick.Load(),
		ParticipantID: env.ParticipantID,
		Kind:          env.Msg.Kind,
		ReqID:         env.Msg.ID,
		Accepted:      res.Accepted,
		Code:          res.Code,
	})
	if err != nil {
		s.logf("journal: %v", err)
	}
}

func (s *Session) buildWelcome(p *modelpkg.Participant) protocol.WelcomeMsg {
	refs := make([]protocol.SuperItemRef, 0)
	for _, it := range s.superItems.Items() {
		refs = append(refs, protocol.SuperItemRef{Key: it.Key(), DisplayName: it.DisplayName()})
	}
	w := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       s.id,
		ParticipantID:   p.ID,
		Team:            p.TeamID,
		TickRateHz:      s.cfg.TickRateHz,
		SuperItems:      refs,
	}
	if s.catalog != nil {
		w.CatalogDigest = s.catalog.Digest
	}
	return w
}
