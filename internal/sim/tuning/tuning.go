package tuning

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz     int `yaml:"tick_rate_hz"`
	InventorySlots int `yaml:"inventory_slots"`
	MaxStack       int `yaml:"max_stack"`
	// ItemTTLTicks is how long ordinary dropped items live. Super items never expire.
	ItemTTLTicks int `yaml:"item_ttl_ticks"`

	Spawn [3]int     `yaml:"spawn"`
	Teams []TeamSpec `yaml:"teams"`
}

type TeamSpec struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: "1.0",
		TickRateHz:      20,
		InventorySlots:  36,
		MaxStack:        64,
		ItemTTLTicks:    6000,
		Spawn:           [3]int{0, 64, 0},
		Teams: []TeamSpec{
			{ID: "red", Name: "Red"},
			{ID: "blue", Name: "Blue"},
		},
	}
}

// Load reads tuning.yaml over the defaults. An empty path returns the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if strings.TrimSpace(path) == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t *Tuning) Normalize() {
	d := Defaults()
	if t.TickRateHz <= 0 {
		t.TickRateHz = d.TickRateHz
	}
	if t.InventorySlots <= 0 {
		t.InventorySlots = d.InventorySlots
	}
	if t.MaxStack <= 0 {
		t.MaxStack = d.MaxStack
	}
	if t.ItemTTLTicks < 0 {
		t.ItemTTLTicks = 0
	}
	for i := range t.Teams {
		t.Teams[i].ID = strings.TrimSpace(t.Teams[i].ID)
		if t.Teams[i].Name == "" {
			t.Teams[i].Name = t.Teams[i].ID
		}
	}
}

func (t Tuning) Validate() error {
	if len(t.Teams) == 0 {
		return fmt.Errorf("no teams")
	}
	seen := map[string]bool{}
	for i, tm := range t.Teams {
		if tm.ID == "" {
			return fmt.Errorf("teams[%d]: empty id", i)
		}
		if seen[tm.ID] {
			return fmt.Errorf("teams[%d]: duplicate id %q", i, tm.ID)
		}
		seen[tm.ID] = true
	}
	return nil
}
