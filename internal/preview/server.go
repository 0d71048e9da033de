package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	prom "github.com/prometheus/client_golang/prometheus"

	ferrors "git.home.luguber.info/inful/doccmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/doccmerge/internal/logfields"
	"git.home.luguber.info/inful/doccmerge/internal/merge"
	"git.home.luguber.info/inful/doccmerge/internal/metrics"
	"git.home.luguber.info/inful/doccmerge/internal/workspace"
)

const (
	defaultDebounce = 2 * time.Second
	shutdownTimeout = 5 * time.Second
	statusPath      = "/_doccmerge/status"
	metricsPath     = "/_doccmerge/metrics"
)

// RebuildFunc performs one merge run.
type RebuildFunc func(ctx context.Context) (*merge.Report, error)

// Options configures a preview Server.
type Options struct {
	Addr      string
	OutputDir string   // served directory; events below it are ignored
	Watch     []string // source directories triggering a re-merge
	Schedule  string   // optional cron expression
	Debounce  time.Duration
	Registry  *prom.Registry // exposes metrics when non-nil
}

// Server serves the merged archive and keeps it up to date.
type Server struct {
	opts    Options
	rebuild RebuildFunc
	status  *buildStatus

	mu   sync.Mutex
	addr string
}

// New creates a preview server.
func New(opts Options, rebuild RebuildFunc) *Server {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	return &Server{opts: opts, rebuild: rebuild, status: &buildStatus{}}
}

// Addr returns the bound listen address once Run has started serving.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run performs an initial merge, then serves and rebuilds until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	outputDir, err := filepath.Abs(s.opts.OutputDir)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "resolve output directory").Fatal().Build()
	}
	watch := make([]string, 0, len(s.opts.Watch))
	for _, w := range s.opts.Watch {
		abs, err := filepath.Abs(w)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "resolve watch path").Fatal().WithContext("path", w).Build()
		}
		watch = append(watch, abs)
	}

	if err := s.build(ctx, "initial"); err != nil && isInputError(err) {
		return err
	}

	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to start preview server").
			Fatal().
			WithContext("addr", s.opts.Addr).
			Build()
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	srv := &http.Server{Handler: s.handler(outputDir), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Preview server stopped", logfields.Error(err))
		}
	}()
	slog.Info("Preview server listening", logfields.Addr(s.Addr()), slog.String("url", "http://"+s.Addr()+"/documentation/"))

	deb := newDebouncer(s.opts.Debounce)
	defer deb.stop()

	var watcher *fsnotify.Watcher
	if len(watch) > 0 {
		watcher, err = setupFileWatcher(watch)
		if err != nil {
			s.shutdown(srv)
			return ferrors.WrapError(err, ferrors.CategoryConfig, "failed to watch sources").Fatal().Build()
		}
		defer func() { _ = watcher.Close() }()
		slog.Info("Watching sources for changes", slog.Any("paths", watch))
	}

	if s.opts.Schedule != "" {
		sched, err := NewScheduler()
		if err == nil {
			_, err = sched.ScheduleCron(s.opts.Schedule, deb.fire)
		}
		if err != nil {
			s.shutdown(srv)
			return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid merge schedule").
				Fatal().
				WithContext("schedule", s.opts.Schedule).
				Build()
		}
		sched.Start()
		defer func() { _ = sched.Stop() }()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.rebuildWorker(ctx, deb.ch)
	}()

	s.loop(ctx, watcher, deb, outputDir)

	slog.Info("Shutting down preview server...")
	s.shutdown(srv)
	wg.Wait()
	return nil
}

func (s *Server) loop(ctx context.Context, watcher *fsnotify.Watcher, deb *debouncer, outputDir string) {
	var events chan fsnotify.Event
	var errs chan error
	if watcher != nil {
		events, errs = watcher.Events, watcher.Errors
	}
	ignore := []string{outputDir, workspace.NextDir(outputDir), workspace.PrevDir(outputDir)}
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if shouldIgnoreEvent(ev.Name, ignore) {
				continue
			}
			if ev.Op&fsnotify.Create == fsnotify.Create {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = addDirsRecursive(watcher, ev.Name)
				}
			}
			slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			deb.trigger()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

// rebuildWorker serializes merges; requests arriving mid-merge collapse into
// a single follow-up run through the buffered channel.
func (s *Server) rebuildWorker(ctx context.Context, requests <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-requests:
			_ = s.build(ctx, "change")
		}
	}
}

func (s *Server) build(ctx context.Context, reason string) error {
	slog.Info("Merging documentation", slog.String("reason", reason))
	report, err := s.rebuild(ctx)
	s.status.record(report, err)
	if err != nil {
		slog.Warn("Merge failed; serving previous output", logfields.Error(err))
	}
	return err
}

// isInputError reports whether err is a request or configuration error raised
// before any stage ran. No later rebuild can fix those.
func isInputError(err error) bool {
	var se *merge.StageError
	if errors.As(err, &se) {
		return false
	}
	return ferrors.HasCategory(err, ferrors.CategoryValidation) || ferrors.HasCategory(err, ferrors.CategoryConfig)
}

func (s *Server) shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("HTTP server shutdown error", logfields.Error(err))
	}
}

func (s *Server) handler(outputDir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(statusPath, s.handleStatus)
	if s.opts.Registry != nil {
		mux.Handle(metricsPath, metrics.HTTPHandler(s.opts.Registry))
	}
	files := http.FileServer(http.Dir(outputDir))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		hasError, err, hasGood := s.status.getStatus()
		if hasError && !hasGood {
			http.Error(w, fmt.Sprintf("merge failed: %v", err), http.StatusServiceUnavailable)
			return
		}
		files.ServeHTTP(w, r)
	})
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.status.snapshot()); err != nil {
		slog.Error("failed to write status", logfields.Error(err))
	}
}
