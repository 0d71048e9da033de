package commands

import (
	"context"
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/doccmerge/internal/merge"
	"git.home.luguber.info/inful/doccmerge/internal/preview"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	MergeFlags `embed:""`

	Addr     string   `name:"addr" help:"Listen address for the preview server"`
	Watch    []string `name:"watch" help:"Source directory to watch for changes (repeatable)" type:"path"`
	Schedule string   `name:"schedule" help:"Cron expression for periodic re-merges"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	s.apply(cfg)
	if s.Addr != "" {
		cfg.Serve.Addr = s.Addr
	}
	if len(s.Watch) > 0 {
		cfg.Serve.Watch = s.Watch
	}
	if s.Schedule != "" {
		cfg.Serve.Schedule = s.Schedule
	}
	watch := cfg.Serve.Watch
	if len(watch) == 0 {
		dir := cfg.Compiler.WorkingDir
		if dir == "" {
			dir = "."
		}
		watch = []string{dir}
	}

	ctx, stop := signalContext()
	defer stop()

	rt, err := newRuntime(cfg, true)
	if err != nil {
		return err
	}
	defer rt.close()

	req := s.request(cfg)
	req.Atomic = true
	var reg *prom.Registry
	if rt.recorder != nil {
		reg = rt.recorder.Registry()
	}
	srv := preview.New(preview.Options{
		Addr:      cfg.Serve.Addr,
		OutputDir: cfg.Output.Directory,
		Watch:     watch,
		Schedule:  cfg.Serve.Schedule,
		Debounce:  cfg.Serve.DebounceDuration(),
		Registry:  reg,
	}, func(ctx context.Context) (*merge.Report, error) {
		return rt.run(ctx, req)
	})

	fmt.Printf("Serving merged documentation on http://%s (Ctrl+C to stop)\n", cfg.Serve.Addr)
	return srv.Run(ctx)
}
