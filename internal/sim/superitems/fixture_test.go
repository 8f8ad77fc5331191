package superitems

import (
	"fmt"
	"testing"

	"siegecraft.ai/internal/sim/events"
	"siegecraft.ai/internal/sim/superitems/tag"
	modelpkg "siegecraft.ai/internal/sim/world/kernel/model"
)

type placedItem struct {
	Pos    modelpkg.Vec3i
	Stack  modelpkg.ItemStack
	Reason string
}

type fakeHost struct {
	participants map[string]*modelpkg.Participant
	placed       map[string]placedItem
	removed      []string
	nextID       int
	refreshes    int
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		participants: map[string]*modelpkg.Participant{},
		placed:       map[string]placedItem{},
	}
}

func (h *fakeHost) Participant(id string) (*modelpkg.Participant, bool) {
	p, ok := h.participants[id]
	return p, ok
}

func (h *fakeHost) TeamMembers(teamID string) []*modelpkg.Participant {
	var out []*modelpkg.Participant
	for _, p := range h.participants {
		if teamID != "" && p.TeamID == teamID {
			out = append(out, p)
		}
	}
	return out
}

func (h *fakeHost) PlaceItem(pos modelpkg.Vec3i, stack modelpkg.ItemStack, reason string) string {
	h.nextID++
	id := fmt.Sprintf("E%d", h.nextID)
	h.placed[id] = placedItem{Pos: pos, Stack: stack, Reason: reason}
	return id
}

func (h *fakeHost) RemoveItem(entityID string, reason string) {
	delete(h.placed, entityID)
	h.removed = append(h.removed, entityID)
}

func (h *fakeHost) RefreshScoreboards() { h.refreshes++ }

func (h *fakeHost) add(id, team string, pos modelpkg.Vec3i, slots int) *modelpkg.Participant {
	p := modelpkg.NewParticipant(id, id, pos, slots, 64)
	p.TeamID = team
	h.participants[id] = p
	return p
}

// placedOf returns the world entities carrying key.
func (h *fakeHost) placedOf(key string) map[string]placedItem {
	out := map[string]placedItem{}
	for id, it := range h.placed {
		if tag.Matches(it.Stack, key) {
			out[id] = it
		}
	}
	return out
}

type fakeKind struct {
	name      string
	item      string
	displayed map[string]int
	hidden    map[string]int
	setups    int
	setupErr  error
}

func newFakeKind(name, item string) *fakeKind {
	return &fakeKind{name: name, item: item, displayed: map[string]int{}, hidden: map[string]int{}}
}

func (k *fakeKind) Template() modelpkg.ItemStack {
	return modelpkg.ItemStack{Item: k.item, Count: 1}
}
func (k *fakeKind) Display(p *modelpkg.Participant)       { k.displayed[p.ID]++ }
func (k *fakeKind) RemoveDisplay(p *modelpkg.Participant) { k.hidden[p.ID]++ }
func (k *fakeKind) DisplayName() string                   { return k.name }
func (k *fakeKind) Setup(Env) error {
	k.setups++
	return k.setupErr
}

type fixture struct {
	host  *fakeHost
	mgr   *Manager
	disp  *events.Dispatcher
	kinds map[string]*fakeKind
	audit []string
}

func newFixture(t *testing.T, keys ...string) *fixture {
	t.Helper()
	f := &fixture{host: newFakeHost(), disp: events.NewDispatcher(), kinds: map[string]*fakeKind{}}
	f.mgr = NewManager(f.host, ManagerOptions{
		Audit: func(actor, action string, _ modelpkg.Vec3i, reason string, _ map[string]any) {
			f.audit = append(f.audit, action+":"+actor+":"+reason)
		},
	})
	for _, k := range keys {
		kind := newFakeKind(k, "ITEM_"+k)
		f.kinds[k] = kind
		if _, err := f.mgr.Register(k, kind); err != nil {
			t.Fatalf("register %s: %v", k, err)
		}
	}
	if err := f.mgr.Attach(f.disp); err != nil {
		t.Fatalf("attach: %v", err)
	}
	return f
}

func (f *fixture) item(t *testing.T, key string) *SuperItem {
	t.Helper()
	s, ok := f.mgr.Item(key)
	if !ok {
		t.Fatalf("no item %s", key)
	}
	return s
}

func holding(p *modelpkg.Participant, key string) int {
	return p.Inventory.Count(func(s modelpkg.ItemStack) bool { return tag.Matches(s, key) })
}

func assertHolder(t *testing.T, s *SuperItem, want string) {
	t.Helper()
	got, ok := s.Holder()
	if want == "" {
		if ok {
			t.Fatalf("%s: holder %q, want none", s.Key(), got)
		}
		return
	}
	if !ok || got != want {
		t.Fatalf("%s: holder %q (ok=%v), want %q", s.Key(), got, ok, want)
	}
}
