package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ScopeHolder = "HOLDER"
	ScopeTeam   = "TEAM"
)

type SuperItemCatalog struct {
	Items  []SuperItemDef          `yaml:"super_items"`
	ByKey  map[string]SuperItemDef `yaml:"-"`
	Digest string                  `yaml:"-"`
}

type SuperItemDef struct {
	Key         string `yaml:"key"`
	DisplayName string `yaml:"display_name"`
	Item        string `yaml:"item"`
	// Effect is attached to the holder (or their team) while the item is held.
	Effect string `yaml:"effect,omitempty"`
	Scope  string `yaml:"scope,omitempty"`
	Lore   string `yaml:"lore,omitempty"`
}

// Load reads a super item catalog. A missing file yields an empty catalog.
func Load(path string) (*SuperItemCatalog, error) {
	c := &SuperItemCatalog{ByKey: map[string]SuperItemDef{}}
	if strings.TrimSpace(path) == "" {
		c.Digest = sha256Hex(nil)
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.Digest = sha256Hex(nil)
			return c, nil
		}
		return nil, err
	}
	c, err = Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("superitems.yaml: %w", err)
	}
	return c, nil
}

func Parse(raw []byte) (*SuperItemCatalog, error) {
	c := &SuperItemCatalog{}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, err
	}
	c.Digest = sha256Hex(raw)
	c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *SuperItemCatalog) Normalize() {
	for i := range c.Items {
		d := &c.Items[i]
		d.Key = strings.TrimSpace(d.Key)
		d.Item = strings.ToUpper(strings.TrimSpace(d.Item))
		d.Scope = strings.ToUpper(strings.TrimSpace(d.Scope))
		if d.Scope == "" {
			d.Scope = ScopeHolder
		}
		if strings.TrimSpace(d.DisplayName) == "" {
			d.DisplayName = d.Key
		}
	}
}

func (c *SuperItemCatalog) Validate() error {
	c.ByKey = make(map[string]SuperItemDef, len(c.Items))
	for i, d := range c.Items {
		if d.Key == "" {
			return fmt.Errorf("super_items[%d]: empty key", i)
		}
		if _, dup := c.ByKey[d.Key]; dup {
			return fmt.Errorf("super_items[%d]: duplicate key %q", i, d.Key)
		}
		if d.Item == "" {
			return fmt.Errorf("super_items[%d] %s: empty item", i, d.Key)
		}
		if d.Scope != ScopeHolder && d.Scope != ScopeTeam {
			return fmt.Errorf("super_items[%d] %s: bad scope %q", i, d.Key, d.Scope)
		}
		c.ByKey[d.Key] = d
	}
	return nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
