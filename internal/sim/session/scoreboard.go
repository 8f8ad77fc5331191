package session

import (
	"encoding/json"

	"siegecraft.ai/internal/protocol"
)

// RefreshScoreboards rebuilds the shared board and pushes it to every connected client.
func (s *Session) RefreshScoreboards() {
	s.scoreboardSeq++
	msg := s.buildScoreboard(s.scoreboardSeq)
	s.scoreboard.Store(&msg)
	s.refreshes.Add(1)

	if len(s.clients) == 0 {
		return
	}
	b, err := json.Marshal(msg)
	if err != nil {
		s.logf("scoreboard marshal: %v", err)
		return
	}
	for _, c := range s.clients {
		if c.Out != nil {
			sendLatest(c.Out, b)
		}
	}
}

// Scoreboard returns the latest board. Safe for concurrent use.
func (s *Session) Scoreboard() protocol.ScoreboardMsg {
	if m := s.scoreboard.Load(); m != nil {
		return *m
	}
	return protocol.ScoreboardMsg{Type: protocol.TypeScoreboard, ProtocolVersion: protocol.Version}
}

// RefreshCount is the number of scoreboard rebuilds so far. Safe for concurrent use.
func (s *Session) RefreshCount() uint64 { return s.refreshes.Load() }

func (s *Session) buildScoreboard(seq uint64) protocol.ScoreboardMsg {
	msg := protocol.ScoreboardMsg{
		Type:            protocol.TypeScoreboard,
		ProtocolVersion: protocol.Version,
		Seq:             seq,
		Tick:            s.tick.Load(),
		Teams:           make([]protocol.TeamBoard, 0, len(s.teamOrder)),
	}
	held := map[string][]protocol.SuperItemRef{}
	var statuses []protocol.ItemStatus
	if s.superItems != nil {
		for _, it := range s.superItems.Items() {
			ref := protocol.SuperItemRef{Key: it.Key(), DisplayName: it.DisplayName()}
			st := protocol.ItemStatus{Key: ref.Key, DisplayName: ref.DisplayName, LyingInWorld: it.LyingInWorld()}
			if id, ok := it.Holder(); ok {
				st.HolderID = id
				if p := s.participants[id]; p != nil && p.HasTeam() {
					held[p.TeamID] = append(held[p.TeamID], ref)
				}
			}
			if eid, ok := it.WorldEntity(); ok {
				if e := s.items[eid]; e != nil {
					pos := e.Pos.ToArray()
					st.Pos = &pos
				}
			}
			statuses = append(statuses, st)
		}
	}
	if statuses == nil {
		statuses = []protocol.ItemStatus{}
	}
	msg.Items = statuses

	for _, id := range s.teamOrder {
		t := s.teams[id]
		refs := held[id]
		if refs == nil {
			refs = []protocol.SuperItemRef{}
		}
		msg.Teams = append(msg.Teams, protocol.TeamBoard{
			TeamID:     t.ID,
			Name:       t.Name,
			Members:    t.MemberIDs(),
			SuperItems: refs,
		})
	}
	return msg
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
