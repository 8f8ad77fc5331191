package session

import (
	"fmt"
	"strings"

	modelpkg "siegecraft.ai/internal/sim/world/kernel/model"
)

const maxNameLen = 32

func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "participant"
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	return name
}

func newParticipantID(n uint64) string {
	return fmt.Sprintf("P%d", n)
}

// participantNumber parses ids produced by newParticipantID; 0 when malformed.
func participantNumber(id string) int {
	if len(id) < 2 || id[0] != 'P' {
		return 0
	}
	n := 0
	for i := 1; i < len(id); i++ {
		c := id[i]
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// spawnPoint spreads participants diagonally away from the configured spawn.
func (s *Session) spawnPoint(id string) modelpkg.Vec3i {
	seed := participantNumber(id) * 2
	base := modelpkg.Vec3iFromArray(s.cfg.Spawn)
	return modelpkg.Vec3i{X: base.X + seed, Y: base.Y, Z: base.Z - seed}
}

// assignTeam places a teamless participant on the smallest team, ties broken by config order.
func (s *Session) assignTeam(participantID string) {
	p := s.participants[participantID]
	if p == nil || p.HasTeam() {
		return
	}
	var best *modelpkg.Team
	for _, id := range s.teamOrder {
		t := s.teams[id]
		if best == nil || t.Size() < best.Size() {
			best = t
		}
	}
	if best == nil {
		return
	}
	best.Members[p.ID] = true
	p.TeamID = best.ID
	s.auditEvent(p.ID, "TEAM_ASSIGN", p.Pos, "JOIN", map[string]any{"team": best.ID})
}

func (s *Session) removeFromTeam(p *modelpkg.Participant) {
	if p == nil || !p.HasTeam() {
		return
	}
	if t := s.teams[p.TeamID]; t != nil {
		delete(t.Members, p.ID)
	}
}
