// Package debug writes a categorized trace log to a file. The TUI owns the
// terminal, so this is the only place runtime diagnostics can go.
package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	file    *os.File
	enabled bool
	filter  map[string]bool // nil = all categories
)

// Enable starts logging to ~/.config/go-gridseq/debug.log, truncating any
// previous run. categories is a comma-separated allowlist; empty, "1" or
// "all" passes everything. Timing categories (sched, clock, engine) are
// chatty, so filtering matters during long sessions.
func Enable(categories string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	dir := filepath.Join(home, ".config", "go-gridseq")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(dir, "debug.log"), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	file = f
	enabled = true
	filter = parseFilter(categories)

	write("debug", "=== logging started (filter=%q) ===", categories)
	return nil
}

func parseFilter(categories string) map[string]bool {
	switch categories {
	case "", "1", "all":
		return nil
	}
	out := make(map[string]bool)
	for _, c := range strings.Split(categories, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out[c] = true
		}
	}
	return out
}

// Disable closes the log file.
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file.Close()
		file = nil
	}
	enabled = false
}

// Log writes one line under a category, if the category passes the filter.
func Log(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || file == nil {
		return
	}
	if filter != nil && !filter[category] {
		return
	}
	write(category, format, args...)
}

// write appends a line; callers hold mu.
func write(category, format string, args ...any) {
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(file, "[%s] %-7s %s\n", ts, category, fmt.Sprintf(format, args...))
	file.Sync() // flush per line so a crash loses nothing
}

var counters = make(map[string]int)

// LogEvery logs only every nth call with the same category+format, for
// per-substep spam like cursor advances.
func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if n > 0 && count%n == 0 {
		Log(category, format+" (count=%d)", append(args, count)...)
	}
}
