package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"slotsight.app/internal/overlay/catalogs"
	persistlog "slotsight.app/internal/persistence/log"
)

func main() {
	var (
		traceDir  = flag.String("trace", "", "trace dir containing trace-*.jsonl.zst")
		configDir = flag.String("configs", "./configs", "config directory")
		sessionID = flag.String("session", "", "replay only this session id (optional)")
	)
	flag.Parse()

	if *traceDir == "" {
		fmt.Fprintln(os.Stderr, "missing -trace")
		os.Exit(2)
	}

	cat, _, err := catalogs.LoadOrDefault(filepath.Join(*configDir, "toggles.yaml"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}

	files, err := persistlog.ListFiles(*traceDir, persistlog.TracePrefix)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list trace:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no trace files found in", *traceDir)
		os.Exit(1)
	}

	r := newReplayer(cat, *sessionID)
	for _, path := range files {
		if err := persistlog.ReadEntries(path, r.apply); err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
	}
	fmt.Printf("replay ok: checked=%s ticks sessions=%d entries=%s\n",
		humanize.Comma(int64(r.checked)), r.sessions, humanize.Comma(int64(r.entries)))
}
