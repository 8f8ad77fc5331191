// Package kinds provides the concrete super items configured from the catalog.
package kinds

import (
	"fmt"

	"siegecraft.ai/internal/sim/catalogs"
	"siegecraft.ai/internal/sim/superitems"
	modelpkg "siegecraft.ai/internal/sim/world/kernel/model"
)

// MetaDisplayName is the item meta field carrying the human readable name.
const MetaDisplayName = "display_name"

// EffectKind grants a named effect to its holder, or to the holder's whole team,
// while the item is held.
type EffectKind struct {
	def catalogs.SuperItemDef
	dir superitems.Directory
}

func NewEffectKind(def catalogs.SuperItemDef) *EffectKind {
	return &EffectKind{def: def}
}

func (k *EffectKind) Def() catalogs.SuperItemDef { return k.def }

func (k *EffectKind) Template() modelpkg.ItemStack {
	meta := map[string]any{MetaDisplayName: k.def.DisplayName}
	if k.def.Lore != "" {
		meta["lore"] = k.def.Lore
	}
	return modelpkg.ItemStack{Item: k.def.Item, Count: 1, Meta: meta}
}

func (k *EffectKind) DisplayName() string { return k.def.DisplayName }

func (k *EffectKind) Setup(env superitems.Env) error {
	if env.Host == nil {
		return fmt.Errorf("%s: no host", k.def.Key)
	}
	k.dir = env.Host
	if env.Logger != nil && k.def.Effect != "" {
		env.Logger.Printf("super item %s: effect %s scope %s", k.def.Key, k.def.Effect, k.def.Scope)
	}
	return nil
}

func (k *EffectKind) Display(holder *modelpkg.Participant) {
	if k.def.Effect == "" {
		return
	}
	for _, p := range k.targets(holder) {
		p.AddEffect(k.def.Effect, k.def.Key)
	}
}

func (k *EffectKind) RemoveDisplay(holder *modelpkg.Participant) {
	if k.def.Effect == "" {
		return
	}
	for _, p := range k.targets(holder) {
		p.RemoveEffect(k.def.Effect, k.def.Key)
	}
}

func (k *EffectKind) targets(holder *modelpkg.Participant) []*modelpkg.Participant {
	if holder == nil {
		return nil
	}
	if k.def.Scope != catalogs.ScopeTeam || !holder.HasTeam() || k.dir == nil {
		return []*modelpkg.Participant{holder}
	}
	members := k.dir.TeamMembers(holder.TeamID)
	for _, m := range members {
		if m.ID == holder.ID {
			return members
		}
	}
	return append(members, holder)
}

// Builtins are used when the catalog defines no super items.
func Builtins() []catalogs.SuperItemDef {
	return []catalogs.SuperItemDef{
		{Key: "horn", DisplayName: "War Horn", Item: "GOAT_HORN", Effect: "SPEED", Scope: catalogs.ScopeHolder},
		{Key: "shield", DisplayName: "Aegis", Item: "SHIELD", Effect: "RESISTANCE", Scope: catalogs.ScopeHolder},
	}
}

// RegisterCatalog registers one EffectKind per catalog entry, in catalog order.
func RegisterCatalog(m *superitems.Manager, c *catalogs.SuperItemCatalog) error {
	defs := Builtins()
	if c != nil && len(c.Items) > 0 {
		defs = c.Items
	}
	for _, d := range defs {
		if _, err := m.Register(d.Key, NewEffectKind(d)); err != nil {
			return err
		}
	}
	return nil
}
