package internal

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/noteexplorer/internal/testutil"
)

func testConfig(dir string) *Config {
	cfg := NewDefaultConfig()
	cfg.Notes.Path = dir
	cfg.Export.SQLitePath = filepath.Join(dir, ".noteexplorer.db")
	cfg.Watch.Debounce = 50 * time.Millisecond
	return cfg
}

func run(t *testing.T, cfg *Config, command string, extra ...Option) string {
	t.Helper()
	var out bytes.Buffer
	opts := append([]Option{
		WithConfig(cfg),
		WithCommand(command),
		WithOutput(&out),
		WithLogOutput(io.Discard),
	}, extra...)
	if err := Run(context.Background(), opts...); err != nil {
		t.Fatalf("Run(%s): %v", command, err)
	}
	return out.String()
}

// syncBuffer is a bytes.Buffer safe for one writer and concurrent readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var notes = map[string]string{
	"A.md": "# A\n[[B]]\n- [ ] Call home\n",
	"B.md": "# B\n[[A]]\n",
	"C.md": "# C\n[[A]] [[B]] [[Nowhere]]\n",
	"D.md": "# D\n",
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background(), WithLogOutput(io.Discard)); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	dir, _ := testutil.TestVault(t, notes)
	err := Run(context.Background(), WithConfig(testConfig(dir)), WithCommand("bogus"),
		WithOutput(io.Discard), WithLogOutput(io.Discard))
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestRun_MissingDirectory(t *testing.T) {
	err := Run(context.Background(), WithConfig(testConfig(filepath.Join(t.TempDir(), "absent"))),
		WithOutput(io.Discard), WithLogOutput(io.Discard))
	if err == nil {
		t.Fatal("expected error for missing note directory")
	}
}

func TestRun_Reports(t *testing.T) {
	dir, _ := testutil.TestVault(t, notes)
	cfg := testConfig(dir)

	cases := map[string]string{
		CommandStats:       "# Statistics\n\n- Notes in collection: 4\n- Notes with ID: 0\n- Wikilinks: 3\n",
		CommandSources:     "# Source notes\n\n1 notes have no incoming links, but at least one outgoing link\n\n- [[C]]\n",
		CommandSinks:       "# Sink notes\n\n0 notes have no outgoing links, but at least one incoming link\n\n",
		CommandIsolated:    "# Isolated notes\n\n1 notes have no incoming or outgoing links\n\n- [[D]]\n",
		CommandBrokenLinks: "# Broken links\n\n- \"[[C]]\" links to unknown [[Nowhere]]\n",
		CommandTasks:       "# Tasks\n\nThere are 1 tasks in your notes\n\n## [[A]]\n\n- [ ] Call home\n",
	}
	for command, want := range cases {
		t.Run(command, func(t *testing.T) {
			if got := run(t, cfg, command); got != want {
				t.Errorf("got %q, want %q", got, want)
			}
		})
	}
}

func TestRun_UpdateAndRemoveBacklinks(t *testing.T) {
	dir, _ := testutil.TestVault(t, notes)
	cfg := testConfig(dir)

	got := run(t, cfg, CommandUpdateBacklinks)
	want := "Updated backlinks section in 2 notes\n- [[A]]\n- [[B]]\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got := run(t, cfg, CommandUpdateBacklinks); got != "Updated backlinks section in 0 notes\n" {
		t.Errorf("second run: %q", got)
	}
	if got := testutil.ReadFile(t, dir, "B.md"); got != "# B\n[[A]]\n\n## Links to this note\n\n- [[A]]\n- [[C]]\n" {
		t.Errorf("B.md = %q", got)
	}

	if got := run(t, cfg, CommandRemoveBacklinks); got != "Removed backlinks section from 2 notes\n" {
		t.Errorf("remove: %q", got)
	}
	if got := testutil.ReadFile(t, dir, "B.md"); got != notes["B.md"] {
		t.Errorf("B.md after remove = %q", got)
	}
}

func TestRun_UpdateFilenamesPrompt(t *testing.T) {
	dir, _ := testutil.TestVault(t, map[string]string{
		"first.md":  "# First Title\n",
		"second.md": "# Second Title\n",
		"ref.md":    "# ref\n[[first]] [[second]]\n",
	})
	cfg := testConfig(dir)

	got := run(t, cfg, CommandUpdateFilenames, WithInput(strings.NewReader("\nn\n")))
	if !strings.Contains(got, `Rename "first.md" to "First Title.md"? ([y]/n) `) ||
		!strings.Contains(got, `Rename "second.md" to "Second Title.md"? ([y]/n) `) {
		t.Errorf("prompts missing in %q", got)
	}
	if !strings.Contains(got, `Renamed "first.md" to "First Title.md", updated links in 1 notes`) {
		t.Errorf("rename report missing in %q", got)
	}
	if got := testutil.ReadFile(t, dir, "ref.md"); got != "# ref\n[[First Title]] [[second]]\n" {
		t.Errorf("ref.md = %q", got)
	}
	testutil.ReadFile(t, dir, "second.md")
}

func TestRun_UpdateFilenamesForce(t *testing.T) {
	dir, _ := testutil.TestVault(t, map[string]string{
		"20201012145848.md": "# With id\n",
	})
	cfg := testConfig(dir)

	got := run(t, cfg, CommandUpdateFilenames, WithForce(true), WithInput(strings.NewReader("")))
	if strings.Contains(got, "?") {
		t.Errorf("forced rename must not prompt: %q", got)
	}
	testutil.ReadFile(t, dir, "20201012145848 With id.md")
}

func TestRun_Export(t *testing.T) {
	dir, _ := testutil.TestVault(t, notes)
	cfg := testConfig(dir)

	got := run(t, cfg, CommandExport)
	want := "Exported 4 notes to " + cfg.Export.SQLitePath + "\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRun_WatchStopsOnCancel(t *testing.T) {
	dir, _ := testutil.TestVault(t, notes)
	cfg := testConfig(dir)

	ctx, cancel := context.WithCancel(context.Background())
	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, WithConfig(cfg), WithCommand(CommandWatch), WithOutput(&out), WithLogOutput(io.Discard))
	}()

	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(out.String(), "Updated backlinks section in 2 notes") {
		if time.Now().After(deadline) {
			t.Fatalf("initial update not reported: %q", out.String())
		}
		time.Sleep(25 * time.Millisecond)
	}

	testutil.WriteFile(t, dir, "E.md", "# E\n[[D]]\n")
	deadline = time.Now().Add(5 * time.Second)
	for !strings.Contains(testutil.ReadFile(t, dir, "D.md"), "- [[E]]") {
		if time.Now().After(deadline) {
			t.Fatalf("D.md not updated: %q", testutil.ReadFile(t, dir, "D.md"))
		}
		time.Sleep(25 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run(watch) = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
