package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"slotsight.app/internal/overlay/catalogs"
	"slotsight.app/internal/overlay/host"
	"slotsight.app/internal/overlay/session"
	"slotsight.app/internal/overlay/simhost"
	"slotsight.app/internal/overlay/surface"
	"slotsight.app/internal/overlay/tuning"
	persistlog "slotsight.app/internal/persistence/log"
)

func main() {
	var (
		configDir    = flag.String("configs", "./configs", "config directory")
		tuningPath   = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		ticks        = flag.Uint64("ticks", 100, "ticks to run (0 = until interrupted)")
		traceDir     = flag.String("trace", "", "write a session trace to this directory (optional)")
		seed         = flag.Int64("seed", 1337, "random input seed")
		failPermille = flag.Int("fail_permille", 100, "chance per submitted input that the server drops it (0..1000)")
		perTick      = flag.Int("actions_per_tick", 2, "max slot actions per tick")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[sim] ", log.LstdFlags|log.Lmicroseconds)

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

	catPath := filepath.Join(*configDir, "toggles.yaml")
	cat, builtin, err := catalogs.LoadOrDefault(catPath)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	if builtin {
		logger.Printf("toggle catalog not found (%s); using built-in catalog", catPath)
	}

	cfg := session.FromTuning(tune)
	lp := &host.Loop{}
	mem := surface.NewMemory(cfg.SlotCount)
	sess, err := session.New(cfg, lp, mem, cat.Table, log.New(os.Stdout, "[overlay] ", log.LstdFlags|log.Lmicroseconds))
	if err != nil {
		logger.Fatalf("session: %v", err)
	}

	var traceLog *persistlog.SessionLogger
	if dir := strings.TrimSpace(*traceDir); dir != "" {
		traceLog = persistlog.NewSessionLogger(dir)
		defer traceLog.Close()
		sess.SetTraceLogger(traceLog, cat.Digest)
	}

	game := simhost.New(cfg.SlotCount, cat.Table, mem)
	d := newDriver(sess, game, cat.Table, *seed)
	d.failPermille = *failPermille
	if *perTick > 0 {
		d.actionsPerTick = *perTick
	}

	ctx, cancel := signalContext()
	defer cancel()

	var startErr error
	lp.Do(func() { startErr = sess.Start(game.Toggles()) })
	if startErr != nil {
		logger.Fatalf("start: %v", startErr)
	}
	logger.Printf("session=%s catalog=%s toggles=%d tick=%s frame=%s", sess.ID(), cat.Digest[:12], cat.Table.Len(), tune.TickDuration(), tune.FrameInterval())

	began := time.Now()
	if err := run(ctx, lp, d, tune.TickDuration(), tune.FrameInterval(), *ticks); err != nil && err != context.Canceled {
		logger.Printf("run: %v", err)
	}
	lp.Do(func() {
		if err := sess.Stop(); err != nil {
			logger.Printf("stop: %v", err)
		}
	})

	st := sess.Stats()
	fmt.Printf("ran %s ticks in %s: predictions=%s resets(mismatch=%s timeout=%s desync=%s) reasserts=%s toggles=%s debounced=%s dropped=%s server_failed=%d\n",
		humanize.Comma(int64(lp.CurrentTick())), time.Since(began).Round(time.Millisecond),
		humanize.Comma(int64(st.PredictionsSet)), humanize.Comma(int64(st.ResetsMismatch)), humanize.Comma(int64(st.ResetsTimeout)), humanize.Comma(int64(st.ResetsDesync)),
		humanize.Comma(int64(st.FrameReasserts)), humanize.Comma(int64(st.ToggleClicks)), humanize.Comma(int64(st.TicksDebounced)),
		humanize.Comma(int64(st.DroppedOperations)), game.Failed())
	if traceLog != nil {
		_ = traceLog.Close()
		fmt.Printf("trace: %s entries, %s on disk in %s\n", humanize.Comma(int64(traceLog.Lines())), humanize.Bytes(dirSize(*traceDir)), *traceDir)
	}
}

// run drives ticks and frames until ctx is done or maxTicks have passed.
func run(ctx context.Context, lp *host.Loop, d *driver, tickEvery, frameEvery time.Duration, maxTicks uint64) error {
	tickT := time.NewTicker(tickEvery)
	defer tickT.Stop()
	frameT := time.NewTicker(frameEvery)
	defer frameT.Stop()

	lp.Do(d.input)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-frameT.C:
			lp.Do(func() { d.sess.OnFrame() })
		case <-tickT.C:
			var err error
			lp.Do(func() {
				if err = d.tick(func() { lp.Advance() }); err == nil {
					d.input()
				}
			})
			if err != nil {
				return err
			}
			if maxTicks != 0 && lp.CurrentTick() >= maxTicks {
				return nil
			}
		}
	}
}

func dirSize(dir string) uint64 {
	files, err := persistlog.ListFiles(dir, persistlog.TracePrefix)
	if err != nil {
		return 0
	}
	var n uint64
	for _, p := range files {
		if fi, err := os.Stat(p); err == nil {
			n += uint64(fi.Size())
		}
	}
	return n
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
