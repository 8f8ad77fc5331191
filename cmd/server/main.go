package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	persistlog "siegecraft.ai/internal/persistence/log"
	"siegecraft.ai/internal/sim/catalogs"
	"siegecraft.ai/internal/sim/session"
	"siegecraft.ai/internal/sim/tuning"
)

func main() {
	var (
		addr        = flag.String("addr", ":8080", "http listen address")
		configDir   = flag.String("configs", "./configs", "config directory")
		dataDir     = flag.String("data", "./data", "runtime data directory")
		tuningPath  = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		catalogPath = flag.String("catalog", "", "path to superitems.yaml (default: <configs>/superitems.yaml)")
		sessionID   = flag.String("session", "", "session run id (default: random uuid)")
		disableDB   = flag.Bool("disable_db", false, "disable the sqlite audit index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	cp := strings.TrimSpace(*catalogPath)
	if cp == "" {
		cp = filepath.Join(*configDir, "superitems.yaml")
	}
	cat, err := catalogs.Load(cp)
	if err != nil {
		logger.Fatalf("load catalog: %v", err)
	}
	if len(cat.Items) == 0 {
		logger.Printf("catalog %s is empty; using built-in super items", cp)
	}

	sid := strings.TrimSpace(*sessionID)
	if sid == "" {
		sid = uuid.NewString()
	}
	sessionDir := filepath.Join(*dataDir, "sessions", sid)
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	// Optional read-model index; the JSONL logs stay the source of truth.
	idx, err := openRuntimeIndex(sessionDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.RecordSession(sid, tune, cat); err != nil {
			logger.Printf("index backend: record session: %v", err)
		}
	}

	auditLog := persistlog.NewAuditLogger(sessionDir)
	journalLog := persistlog.NewJournalLogger(sessionDir)
	defer auditLog.Close()
	defer journalLog.Close()

	audits := []session.AuditLogger{auditLog}
	journal := multiJournal{journalLog}
	if idx != nil {
		audits = append(audits, idx)
		journal = append(journal, idx)
	}

	sess, err := session.New(session.Config{
		Tuning:       tune,
		Catalog:      cat,
		Logger:       logger,
		AuditLoggers: audits,
		Journal:      journal,
		SessionID:    sid,
	})
	if err != nil {
		logger.Fatalf("session: %v", err)
	}
	logger.Printf("session=%s teams=%d super_items=%v", sess.ID(), len(tune.Teams), sess.SuperItems().Keys())

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := sess.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("session stopped: %v", err)
		}
	}()

	a := &app{
		sess:      sess,
		idx:       idx,
		logger:    logger,
		adminHTTP: envBool("SC_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()),
		pprofHTTP: envBool("SC_ENABLE_PPROF_HTTP", false),
	}
	srv := &http.Server{
		Addr:              *addr,
		Handler:           a.mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

// multiJournal fans one journal entry out to every sink; sink errors are ignored.
type multiJournal []session.Journal

func (m multiJournal) WriteJournal(entry session.JournalEntry) error {
	for _, j := range m {
		if j != nil {
			_ = j.WriteJournal(entry)
		}
	}
	return nil
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
