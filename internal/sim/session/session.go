// Package session hosts one team session: the participant directory, team
// assignment, world item entities, the shared scoreboard and the super items.
package session

import (
	"fmt"
	"log"
	"sync/atomic"

	"github.com/google/uuid"

	"siegecraft.ai/internal/protocol"
	"siegecraft.ai/internal/sim/catalogs"
	"siegecraft.ai/internal/sim/events"
	"siegecraft.ai/internal/sim/superitems"
	"siegecraft.ai/internal/sim/superitems/kinds"
	"siegecraft.ai/internal/sim/tuning"
	modelpkg "siegecraft.ai/internal/sim/world/kernel/model"
)

type Config struct {
	Tuning  tuning.Tuning
	Catalog *catalogs.SuperItemCatalog
	Logger  *log.Logger
	// Optional audit sinks (may be empty). Implemented in internal/persistence/*.
	AuditLoggers []AuditLogger
	Journal      Journal
	// SessionID overrides the generated run id.
	SessionID string
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

// Journal records every client event the session applied, with its outcome.
type Journal interface {
	WriteJournal(entry JournalEntry) error
}

type JournalEntry struct {
	SessionID     string `json:"session_id"`
	Tick          uint64 `json:"tick"`
	ParticipantID string `json:"participant_id"`
	Kind          string `json:"kind"`
	ReqID         string `json:"req_id,omitempty"`
	Accepted      bool   `json:"accepted"`
	Code          string `json:"code,omitempty"`
}

type AuditEntry struct {
	SessionID string         `json:"session_id,omitempty"`
	Tick      uint64         `json:"tick"`
	Actor     string         `json:"actor"`
	Action    string         `json:"action"` // e.g. "SUPERITEM_GRANT"
	Pos       [3]int         `json:"pos"`
	Reason    string         `json:"reason,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Session is a single-threaded authoritative host.
// All state must be accessed only from the session loop goroutine; Scoreboard is the exception.
type Session struct {
	id      string
	cfg     tuning.Tuning
	catalog *catalogs.SuperItemCatalog
	logger  *log.Logger
	audits  []AuditLogger
	journal Journal

	tick atomic.Uint64

	participants map[string]*modelpkg.Participant
	teams        map[string]*modelpkg.Team
	teamOrder    []string
	clients      map[string]*clientState

	items   map[string]*modelpkg.ItemEntity
	itemsAt map[modelpkg.Vec3i][]string

	dispatcher *events.Dispatcher
	superItems *superitems.Manager

	inbox chan EventEnvelope
	join  chan JoinRequest
	leave chan string
	stop  chan struct{}
	done  chan struct{}

	nextParticipantNum atomic.Uint64
	nextItemNum        atomic.Uint64

	scoreboard    atomic.Pointer[protocol.ScoreboardMsg]
	scoreboardSeq uint64
	refreshes     atomic.Uint64
}

type clientState struct {
	Out chan []byte
}

func New(cfg Config) (*Session, error) {
	t := cfg.Tuning
	t.Normalize()
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	id := cfg.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	s := &Session{
		id:           id,
		cfg:          t,
		catalog:      cfg.Catalog,
		logger:       cfg.Logger,
		audits:       cfg.AuditLoggers,
		journal:      cfg.Journal,
		participants: map[string]*modelpkg.Participant{},
		teams:        map[string]*modelpkg.Team{},
		clients:      map[string]*clientState{},
		items:        map[string]*modelpkg.ItemEntity{},
		itemsAt:      map[modelpkg.Vec3i][]string{},
		dispatcher:   events.NewDispatcher(),
		inbox:        make(chan EventEnvelope, 1024),
		join:         make(chan JoinRequest, 64),
		leave:        make(chan string, 64),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, ts := range t.Teams {
		s.teams[ts.ID] = modelpkg.NewTeam(ts.ID, ts.Name)
		s.teamOrder = append(s.teamOrder, ts.ID)
	}

	// Team assignment must run before the super item join rule, which is a monitor handler.
	s.dispatcher.Register(events.TypeJoin, events.PhaseNormal, "teams", func(ev events.Event) {
		s.assignTeam(ev.(*events.Join).ParticipantID)
	})

	s.superItems = superitems.NewManager(s, superitems.ManagerOptions{
		Audit:  s.superItemAudit,
		Logger: cfg.Logger,
	})
	if err := kinds.RegisterCatalog(s.superItems, cfg.Catalog); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	if err := s.superItems.Attach(s.dispatcher); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	s.RefreshScoreboards()
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Tick() uint64 { return s.tick.Load() }

func (s *Session) TickRateHz() int { return s.cfg.TickRateHz }

func (s *Session) SuperItems() *superitems.Manager { return s.superItems }

func (s *Session) Dispatcher() *events.Dispatcher { return s.dispatcher }

// ItemEntity returns the world item entity id, if it still exists.
func (s *Session) ItemEntity(id string) (*modelpkg.ItemEntity, bool) {
	e, ok := s.items[id]
	return e, ok
}

// ItemEntitiesAt lists entity ids at pos in spawn order.
func (s *Session) ItemEntitiesAt(pos modelpkg.Vec3i) []string {
	return append([]string(nil), s.itemsAt[pos]...)
}

func (s *Session) Team(id string) (*modelpkg.Team, bool) {
	t, ok := s.teams[id]
	return t, ok
}

func (s *Session) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

func (s *Session) auditEvent(actor, action string, pos modelpkg.Vec3i, reason string, details map[string]any) {
	if len(s.audits) == 0 {
		return
	}
	entry := AuditEntry{
		SessionID: s.id,
		Tick:      s.tick.Load(),
		Actor:     actor,
		Action:    action,
		Pos:       pos.ToArray(),
		Reason:    reason,
		Details:   details,
	}
	for _, l := range s.audits {
		if err := l.WriteAudit(entry); err != nil {
			s.logf("audit %s: %v", action, err)
		}
	}
}

func (s *Session) superItemAudit(actor, action string, pos modelpkg.Vec3i, reason string, details map[string]any) {
	s.auditEvent(actor, action, pos, reason, details)
}

func (s *Session) itemAudit(_ uint64, actor, action string, pos modelpkg.Vec3i, reason string, details map[string]any) {
	s.auditEvent(actor, action, pos, reason, details)
}
