package superitems

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"siegecraft.ai/internal/sim/events"
)

// Manager is the session's registry of super items. It answers uniqueness queries
// globally: a participant or team holding any super item counts as holding one.
type Manager struct {
	host   Host
	audit  AuditFunc
	logger *log.Logger

	items []*SuperItem
	byKey map[string]*SuperItem

	setupDone bool
}

type ManagerOptions struct {
	Audit  AuditFunc
	Logger *log.Logger
}

func NewManager(host Host, opts ManagerOptions) *Manager {
	return &Manager{
		host:   host,
		audit:  opts.Audit,
		logger: opts.Logger,
		byKey:  map[string]*SuperItem{},
	}
}

// Register adds a super item type. Keys must be unique and registration closes at Setup.
func (m *Manager) Register(key string, kind Kind) (*SuperItem, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("superitems: empty key")
	}
	if kind == nil {
		return nil, fmt.Errorf("superitems: %s: nil kind", key)
	}
	if m.setupDone {
		return nil, fmt.Errorf("superitems: %s: registered after setup", key)
	}
	if _, dup := m.byKey[key]; dup {
		return nil, fmt.Errorf("superitems: duplicate key %q", key)
	}
	s := &SuperItem{
		key:      key,
		kind:     kind,
		host:     m.host,
		registry: m,
		audit:    m.audit,
		logger:   m.logger,
	}
	m.items = append(m.items, s)
	m.byKey[key] = s
	return s, nil
}

// Setup runs every kind's one-time setup. Later calls are no-ops.
func (m *Manager) Setup() error {
	if m.setupDone {
		return nil
	}
	for _, s := range m.items {
		if err := s.kind.Setup(Env{Key: s.key, Host: m.host, Logger: m.logger}); err != nil {
			return fmt.Errorf("superitems: setup %s: %w", s.key, err)
		}
		if m.logger != nil {
			m.logger.Printf("super item ready: %s (%s)", s.key, s.kind.DisplayName())
		}
	}
	m.setupDone = true
	return nil
}

// Attach runs Setup and binds every item's rules to d, in registration order.
func (m *Manager) Attach(d *events.Dispatcher) error {
	if err := m.Setup(); err != nil {
		return err
	}
	for _, s := range m.items {
		s.Listen(d)
	}
	return nil
}

func (m *Manager) Item(key string) (*SuperItem, bool) {
	s, ok := m.byKey[key]
	return s, ok
}

func (m *Manager) Items() []*SuperItem {
	out := make([]*SuperItem, len(m.items))
	copy(out, m.items)
	return out
}

func (m *Manager) Keys() []string {
	out := make([]string, 0, len(m.byKey))
	for k := range m.byKey {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// HeldBy returns the super item participantID holds, if any.
func (m *Manager) HeldBy(participantID string) (*SuperItem, bool) {
	if participantID == "" {
		return nil, false
	}
	for _, s := range m.items {
		if s.holder.is(participantID) {
			return s, true
		}
	}
	return nil, false
}

func (m *Manager) HasSuperItem(participantID string) bool {
	_, ok := m.HeldBy(participantID)
	return ok
}

func (m *Manager) TeamHasSuperItem(teamID string) bool {
	if teamID == "" {
		return false
	}
	for _, s := range m.items {
		id, ok := s.holder.get()
		if !ok {
			continue
		}
		if p, found := m.host.Participant(id); found && p.TeamID == teamID {
			return true
		}
	}
	return false
}

// HolderOf returns the holder of key.
func (m *Manager) HolderOf(key string) (string, bool) {
	s, ok := m.byKey[key]
	if !ok {
		return "", false
	}
	return s.Holder()
}
