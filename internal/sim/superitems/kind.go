// Package superitems tracks exclusive possession of unique items across a team session.
//
// Each SuperItem owns one piece of state (the optional holder and whether a physical
// instance lies in the world) and reacts to host events routed by the session
// dispatcher. Concrete item kinds plug in through the Kind interface.
package superitems

import (
	"log"

	modelpkg "siegecraft.ai/internal/sim/world/kernel/model"
)

// Kind is implemented once per concrete super item. The state machine only calls it.
type Kind interface {
	// Template returns the item stack every granted or spawned instance is cloned from.
	Template() modelpkg.ItemStack
	Display(holder *modelpkg.Participant)
	RemoveDisplay(holder *modelpkg.Participant)
	DisplayName() string
	// Setup runs exactly once, before any event is dispatched.
	Setup(env Env) error
}

type Env struct {
	Key    string
	Host   Host
	Logger *log.Logger
}

// Directory resolves participants known to the session.
type Directory interface {
	Participant(id string) (*modelpkg.Participant, bool)
	TeamMembers(teamID string) []*modelpkg.Participant
}

// Host is the session surface the state machine consumes.
type Host interface {
	Directory
	// PlaceItem puts a glowing, never-expiring instance in the world and returns its entity id.
	PlaceItem(pos modelpkg.Vec3i, stack modelpkg.ItemStack, reason string) string
	RemoveItem(entityID string, reason string)
	// RefreshScoreboards rebuilds the shared status board. Safe to call repeatedly.
	RefreshScoreboards()
}

// Registry answers cross-item uniqueness questions.
type Registry interface {
	HasSuperItem(participantID string) bool
	TeamHasSuperItem(teamID string) bool
}

type AuditFunc func(actor, action string, pos modelpkg.Vec3i, reason string, details map[string]any)
