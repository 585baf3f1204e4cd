package router

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/zulandar/switchboard/internal/archive"
	"github.com/zulandar/switchboard/internal/config"
	"github.com/zulandar/switchboard/internal/flow"
	"github.com/zulandar/switchboard/internal/front"
	"github.com/zulandar/switchboard/internal/observability"
	"github.com/zulandar/switchboard/internal/operator"
)

// Daemon is the main switchboard process. It connects the operator adapter,
// serves the front channel, and pumps events from both into the Router on a
// single loop, so every event is handled to completion before the next.
type Daemon struct {
	cfg      *config.Config
	adapter  operator.Adapter
	hub      *front.Hub
	recorder *archive.Recorder      // optional
	metrics  *observability.Metrics // optional
	out      io.Writer
}

// DaemonOpts holds parameters for creating a Daemon.
type DaemonOpts struct {
	Config   *config.Config
	Adapter  operator.Adapter
	Hub      *front.Hub
	Recorder *archive.Recorder      // optional; enables the audit archive
	Metrics  *observability.Metrics // optional
	Out      io.Writer              // defaults to os.Stdout
}

// NewDaemon creates a Daemon with the given options.
func NewDaemon(opts DaemonOpts) (*Daemon, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("router: config is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("router: adapter is required")
	}
	if opts.Hub == nil {
		return nil, fmt.Errorf("router: hub is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Daemon{
		cfg:      opts.Config,
		adapter:  opts.Adapter,
		hub:      opts.Hub,
		recorder: opts.Recorder,
		metrics:  opts.Metrics,
		out:      out,
	}, nil
}

// Run starts the daemon. It blocks until the context is cancelled. On
// shutdown it closes the operator adapter gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	fmt.Fprintf(d.out, "Switchboard connecting...\n")
	if err := d.adapter.Connect(ctx); err != nil {
		return fmt.Errorf("router: connect operator adapter: %w", err)
	}

	router, err := NewRouter(RouterOpts{
		Store:    flow.NewStore(),
		Machine:  flow.Machine{RedirectURL: d.cfg.RedirectURL},
		Front:    d.hub,
		Operator: d.adapter,
		Recorder: d.recorder,
		Metrics:  d.metrics,
		Out:      d.out,
	})
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("router: build router: %w", err)
	}

	opEvents, err := d.adapter.Listen(ctx)
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("router: listen operator: %w", err)
	}

	// Serve the front channel in the background; its events arrive through
	// the hub's channel.
	frontErr := make(chan error, 1)
	go func() {
		frontErr <- front.StartServer(ctx, front.ServerOpts{
			Hub:            d.hub,
			Port:           d.cfg.ListenPort,
			AllowAnyOrigin: d.cfg.AllowAnyOrigin,
			Out:            d.out,
		})
	}()

	// Idle-session sweep, only when configured.
	var sweepTimer *time.Timer
	sweepCron := d.cfg.Sessions.SweepCron
	if sweepCron != "" {
		if wait := nextCronDuration(sweepCron); wait > 0 {
			sweepTimer = time.NewTimer(wait)
			defer sweepTimer.Stop()
		}
	}

	fmt.Fprintf(d.out, "Switchboard online\n")
	if err := d.adapter.Send(ctx, operator.Prompt{Text: "Switchboard online"}); err != nil {
		log.Printf("router: send online message: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(d.out, "Switchboard shutting down...\n")
			d.sendShutdown()
			if err := d.adapter.Close(); err != nil {
				log.Printf("router: close adapter: %v", err)
			}
			fmt.Fprintf(d.out, "Switchboard stopped\n")
			return nil

		case err := <-frontErr:
			if err != nil {
				d.adapter.Close()
				return fmt.Errorf("router: front server: %w", err)
			}

		case ev, ok := <-d.hub.Events():
			if !ok {
				fmt.Fprintf(d.out, "Switchboard front channel closed\n")
				return nil
			}
			router.HandleFront(ctx, ev)

		case ev, ok := <-opEvents:
			if !ok {
				fmt.Fprintf(d.out, "Switchboard operator channel closed\n")
				return nil
			}
			router.HandleOperator(ctx, ev)

		case <-timerChan(sweepTimer):
			cutoff := time.Now().Add(-d.cfg.Sessions.IdleTimeout())
			if n := router.Sweep(cutoff); n > 0 {
				fmt.Fprintf(d.out, "Switchboard swept %d idle sessions\n", n)
			}
			if wait := nextCronDuration(sweepCron); wait > 0 {
				sweepTimer.Reset(wait)
			}
		}
	}
}

// sendShutdown posts a shutdown message to the operator (best-effort).
func (d *Daemon) sendShutdown() {
	ctx := context.Background()
	if err := d.adapter.Send(ctx, operator.Prompt{Text: "Switchboard shutting down"}); err != nil {
		log.Printf("router: send shutdown message: %v", err)
	}
}
