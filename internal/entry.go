// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/starford/noteexplorer/internal/index"
	"github.com/starford/noteexplorer/internal/note"
	"github.com/starford/noteexplorer/internal/parser"
	"github.com/starford/noteexplorer/internal/report"
	"github.com/starford/noteexplorer/internal/storage"
	"github.com/starford/noteexplorer/internal/watch"
)

// Commands.
const (
	CommandStats           = "stats"
	CommandBrokenLinks     = "list-broken-links"
	CommandIsolated        = "list-isolated"
	CommandSinks           = "list-sinks"
	CommandSources         = "list-sources"
	CommandTasks           = "list-tasks"
	CommandUpdateBacklinks = "update-backlinks"
	CommandRemoveBacklinks = "remove-backlinks"
	CommandUpdateFilenames = "update-filenames"
	CommandExport          = "export"
	CommandWatch           = "watch"
)

// Run builds the note graph of the configured directory and runs one command on it.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{
		command: CommandStats,
		out:     os.Stdout,
		in:      os.Stdin,
		logOut:  os.Stderr,
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := newLogger(cfg.App, app.logOut)
	slog.SetDefault(logger)

	logger.Debug("Configuration loaded",
		slog.String("command", app.command),
		slog.String("notes_path", cfg.Notes.Path),
		slog.String("extension", cfg.Notes.Extension),
		slog.String("id_pattern", cfg.Parser.IDPattern),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := storage.NewFS(cfg.Notes.Path, logger)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	p, err := parser.New(cfg.Parser.IDPattern, cfg.Parser.BacklinksHeading)
	if err != nil {
		return fmt.Errorf("init parser: %w", err)
	}

	collect := func() (*note.Collection, error) {
		return note.Collect(store, cfg.Notes.Extension, p, logger)
	}

	if app.command == CommandWatch {
		return app.watch(ctx, store.Root(), collect, logger)
	}

	c, err := collect()
	if err != nil {
		return err
	}

	switch app.command {
	case CommandStats:
		return report.Stats(app.out, c)
	case CommandBrokenLinks:
		return report.BrokenLinks(app.out, c.BrokenLinks())
	case CommandIsolated:
		return report.Isolated(app.out, c.Isolated())
	case CommandSinks:
		return report.Sinks(app.out, c.Sinks())
	case CommandSources:
		return report.Sources(app.out, c.Sources())
	case CommandTasks:
		return report.Tasks(app.out, c.Tasks())
	case CommandUpdateBacklinks:
		return report.UpdatedBacklinks(app.out, c.UpdateBacklinks())
	case CommandRemoveBacklinks:
		return report.RemovedBacklinks(app.out, c.RemoveBacklinks())
	case CommandUpdateFilenames:
		return app.updateFilenames(c, logger)
	case CommandExport:
		return app.export(c)
	default:
		return fmt.Errorf("unknown command %q", app.command)
	}
}

func newLogger(cfg ApplicationConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// updateFilenames renames every note whose file name does not match its id
// and title, asking first unless forced. An empty reply counts as yes.
func (app *application) updateFilenames(c *note.Collection, logger *slog.Logger) error {
	replies := bufio.NewScanner(app.in)
	for _, m := range c.MismatchedFilenames() {
		from := m.Note.FileName()
		to := m.Stem
		if m.Note.Extension != "" {
			to += "." + m.Note.Extension
		}

		if !app.force {
			if _, err := fmt.Fprintf(app.out, "Rename \"%s\" to \"%s\"? ([y]/n) ", from, to); err != nil {
				return err
			}
			if !replies.Scan() {
				if err := replies.Err(); err != nil {
					return fmt.Errorf("read reply: %w", err)
				}
				logger.Debug("update-filenames: input closed, stopping")
				return nil
			}
			if reply := strings.TrimSpace(replies.Text()); reply != "" && reply != "y" {
				continue
			}
		}

		changed, err := c.RenameNote(m.Note, m.Stem)
		if err != nil {
			logger.Warn("update-filenames: rename failed",
				slog.String("path", m.Note.Path),
				slog.String("error", err.Error()))
			continue
		}
		if err := report.Renamed(app.out, from, to, changed); err != nil {
			return err
		}
	}
	return nil
}

func (app *application) export(c *note.Collection) error {
	path := app.config.Export.SQLitePath
	db, err := index.Open(path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	n, err := db.Export(c)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return report.Exported(app.out, path, n)
}

// watch updates backlinks once, then again after every settled batch of
// file changes, until ctx is done or the process is interrupted.
func (app *application) watch(ctx context.Context, root string, collect func() (*note.Collection, error), logger *slog.Logger) error {
	update := func() error {
		c, err := collect()
		if err != nil {
			return err
		}
		changed := c.UpdateBacklinks()
		if len(changed) == 0 {
			return nil
		}
		return report.UpdatedBacklinks(app.out, changed)
	}
	if err := update(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return watch.Run(gCtx, root, app.config.Notes.Extension, app.config.Watch.Debounce, logger, update)
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			cancel()
		case <-gCtx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Watch error", slog.String("error", err.Error()))
		return err
	}
	return nil
}
