package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"siegecraft.ai/internal/persistence/indexdb"
	"siegecraft.ai/internal/sim/catalogs"
	"siegecraft.ai/internal/sim/session"
	"siegecraft.ai/internal/sim/tuning"
)

type runtimeIndex interface {
	session.AuditLogger
	session.Journal
	Close() error
	RecordSession(sessionID string, tune tuning.Tuning, cat *catalogs.SuperItemCatalog) error
	Stats() indexdb.Stats
}

func openRuntimeIndex(sessionDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("SC_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		return indexdb.OpenSQLite(filepath.Join(sessionDir, "index", "session.sqlite"))
	default:
		return nil, fmt.Errorf("unsupported SC_INDEX_BACKEND: %s", backend)
	}
}
