package model

import "sort"

// Participant is a connected player in a session.
type Participant struct {
	ID     string
	Name   string
	TeamID string // empty until the team subsystem assigns one

	Pos Vec3i

	Inventory *Inventory
	// Cursor is the stack currently held on the inventory cursor.
	Cursor ItemStack

	// Presentation effects attached by super item kinds (effect name -> source key).
	Effects map[string]string
}

func NewParticipant(id, name string, pos Vec3i, slots, maxStack int) *Participant {
	p := &Participant{
		ID:        id,
		Name:      name,
		Pos:       pos,
		Inventory: NewInventory(slots, maxStack),
	}
	p.InitDefaults()
	return p
}

func (p *Participant) InitDefaults() {
	if p.Inventory == nil {
		p.Inventory = NewInventory(0, 0)
	}
	if p.Effects == nil {
		p.Effects = map[string]string{}
	}
}

func (p *Participant) HasTeam() bool { return p != nil && p.TeamID != "" }

func (p *Participant) AddEffect(name, source string) {
	if name == "" {
		return
	}
	p.InitDefaults()
	p.Effects[name] = source
}

// RemoveEffect drops name only if it was attached by source.
func (p *Participant) RemoveEffect(name, source string) {
	if cur, ok := p.Effects[name]; ok && cur == source {
		delete(p.Effects, name)
	}
}

func (p *Participant) HasEffect(name string) bool {
	_, ok := p.Effects[name]
	return ok
}

func (p *Participant) EffectNames() []string {
	out := make([]string, 0, len(p.Effects))
	for k := range p.Effects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
