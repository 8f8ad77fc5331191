package kinds

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"siegecraft.ai/internal/sim/catalogs"
	"siegecraft.ai/internal/sim/superitems"
	modelpkg "siegecraft.ai/internal/sim/world/kernel/model"
)

type stubHost struct {
	people map[string]*modelpkg.Participant
}

func (h *stubHost) Participant(id string) (*modelpkg.Participant, bool) {
	p, ok := h.people[id]
	return p, ok
}

func (h *stubHost) TeamMembers(teamID string) []*modelpkg.Participant {
	var out []*modelpkg.Participant
	for _, p := range h.people {
		if p.TeamID == teamID {
			out = append(out, p)
		}
	}
	return out
}

func (h *stubHost) PlaceItem(modelpkg.Vec3i, modelpkg.ItemStack, string) string { return "E1" }
func (h *stubHost) RemoveItem(string, string)                                   {}
func (h *stubHost) RefreshScoreboards()                                         {}

func newStubHost(ids map[string]string) *stubHost {
	h := &stubHost{people: map[string]*modelpkg.Participant{}}
	for id, team := range ids {
		p := modelpkg.NewParticipant(id, id, modelpkg.Vec3i{}, 9, 64)
		p.TeamID = team
		h.people[id] = p
	}
	return h
}

func TestEffectKind_TemplateIsSingleAndNamed(t *testing.T) {
	k := NewEffectKind(catalogs.SuperItemDef{Key: "horn", DisplayName: "War Horn", Item: "GOAT_HORN", Lore: "loud"})
	tpl := k.Template()
	if tpl.Count != 1 || tpl.Item != "GOAT_HORN" {
		t.Fatalf("template: %+v", tpl)
	}
	if tpl.Meta[MetaDisplayName] != "War Horn" || tpl.Meta["lore"] != "loud" {
		t.Fatalf("meta: %+v", tpl.Meta)
	}
	tpl.Meta[MetaDisplayName] = "changed"
	if k.Template().Meta[MetaDisplayName] != "War Horn" {
		t.Fatalf("template shares meta between calls")
	}
}

func TestEffectKind_HolderScope(t *testing.T) {
	h := newStubHost(map[string]string{"A": "red", "B": "red"})
	k := NewEffectKind(catalogs.SuperItemDef{Key: "horn", Item: "GOAT_HORN", Effect: "SPEED", Scope: catalogs.ScopeHolder})
	if err := k.Setup(superitems.Env{Key: "horn", Host: h}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	k.Display(h.people["A"])
	if !h.people["A"].HasEffect("SPEED") || h.people["B"].HasEffect("SPEED") {
		t.Fatalf("effect scope wrong")
	}
	k.RemoveDisplay(h.people["A"])
	if h.people["A"].HasEffect("SPEED") {
		t.Fatalf("effect not removed")
	}
}

func TestEffectKind_TeamScope(t *testing.T) {
	h := newStubHost(map[string]string{"A": "red", "B": "red", "C": "blue"})
	k := NewEffectKind(catalogs.SuperItemDef{Key: "banner", Item: "WHITE_BANNER", Effect: "REGENERATION", Scope: catalogs.ScopeTeam})
	if err := k.Setup(superitems.Env{Key: "banner", Host: h}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	k.Display(h.people["A"])
	if !h.people["A"].HasEffect("REGENERATION") || !h.people["B"].HasEffect("REGENERATION") {
		t.Fatalf("team not buffed")
	}
	if h.people["C"].HasEffect("REGENERATION") {
		t.Fatalf("other team buffed")
	}
	k.RemoveDisplay(h.people["A"])
	for _, id := range []string{"A", "B"} {
		if h.people[id].HasEffect("REGENERATION") {
			t.Fatalf("%s keeps effect", id)
		}
	}
}

func TestEffectKind_SetupRequiresHost(t *testing.T) {
	if err := NewEffectKind(catalogs.SuperItemDef{Key: "x"}).Setup(superitems.Env{Key: "x"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestEffectKind_SetupLogsEffect(t *testing.T) {
	var buf bytes.Buffer
	k := NewEffectKind(catalogs.SuperItemDef{Key: "banner", Item: "WHITE_BANNER", Effect: "REGENERATION", Scope: catalogs.ScopeTeam})
	if err := k.Setup(superitems.Env{Key: "banner", Host: newStubHost(nil), Logger: log.New(&buf, "", 0)}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if got := buf.String(); !strings.Contains(got, "banner: effect REGENERATION scope TEAM") {
		t.Fatalf("log: %q", got)
	}
}

func TestRegisterCatalog_FallsBackToBuiltins(t *testing.T) {
	m := superitems.NewManager(newStubHost(nil), superitems.ManagerOptions{})
	if err := RegisterCatalog(m, &catalogs.SuperItemCatalog{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := m.Keys(); len(got) != 2 || got[0] != "horn" || got[1] != "shield" {
		t.Fatalf("keys: %v", got)
	}
	if err := m.Setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}
}

func TestRegisterCatalog_UsesCatalogEntries(t *testing.T) {
	c, err := catalogs.Parse([]byte("super_items:\n  - key: crown\n    item: GOLDEN_HELMET\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	m := superitems.NewManager(newStubHost(nil), superitems.ManagerOptions{})
	if err := RegisterCatalog(m, c); err != nil {
		t.Fatalf("register: %v", err)
	}
	s, ok := m.Item("crown")
	if !ok || s.DisplayName() != "crown" {
		t.Fatalf("crown missing: %v", ok)
	}
}
