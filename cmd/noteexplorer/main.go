package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/noteexplorer/internal"
	pkgconfig "github.com/starford/noteexplorer/pkg/config"
)

// loadConfig reads the optional config file and applies flag overrides.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if path := cmd.Args().First(); path != "" {
		cfg.Notes.Path = path
	} else if cmd.IsSet("path") {
		cfg.Notes.Path = cmd.String("path")
	}
	if cmd.IsSet("extension") {
		cfg.Notes.Extension = cmd.String("extension")
	}
	if cmd.IsSet("id-format") {
		cfg.Parser.IDPattern = cmd.String("id-format")
	}
	if cmd.IsSet("backlinks-heading") {
		cfg.Parser.BacklinksHeading = cmd.String("backlinks-heading")
	}
	if cmd.IsSet("log-level") {
		if err := cfg.App.LogLevel.UnmarshalText([]byte(cmd.String("log-level"))); err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
	}
	if cmd.IsSet("output") {
		cfg.Export.SQLitePath = cmd.String("output")
	}
	if cmd.IsSet("debounce") {
		cfg.Watch.Debounce = cmd.Duration("debounce")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// action returns the cli action running the named command.
func action(command string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := []internal.Option{
			internal.WithConfig(cfg),
			internal.WithCommand(command),
			internal.WithForce(cmd.Bool("force")),
		}

		if err := internal.Run(ctx, opts...); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}
		return nil
	}
}

func main() {
	cmd := &cli.Command{
		Name:      "noteexplorer",
		Usage:     "Helps organizing your stack of linked Markdown notes",
		ArgsUsage: "[PATH]",
		Action:    action(internal.CommandStats),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file, ignored when missing",
				DefaultText: "noteexplorer.yaml",
				Value:       "noteexplorer.yaml",
				Sources:     cli.EnvVars("NOTEEXPLORER_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "Path to the note files directory",
				Sources: cli.EnvVars("NOTEEXPLORER_PATH"),
			},
			&cli.StringFlag{
				Name:    "extension",
				Aliases: []string{"e"},
				Usage:   "File extension of note files",
				Sources: cli.EnvVars("NOTEEXPLORER_EXTENSION"),
			},
			&cli.StringFlag{
				Name:    "id-format",
				Aliases: []string{"i"},
				Usage:   "Regular expression pattern for note IDs",
				Sources: cli.EnvVars("NOTEEXPLORER_ID_FORMAT"),
			},
			&cli.StringFlag{
				Name:    "backlinks-heading",
				Aliases: []string{"b"},
				Usage:   "Heading to insert before backlinks",
				Sources: cli.EnvVars("NOTEEXPLORER_BACKLINKS_HEADING"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("NOTEEXPLORER_LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      internal.CommandStats,
				Usage:     "Prints statistics about the notes",
				ArgsUsage: "[PATH]",
				Action:    action(internal.CommandStats),
			},
			{
				Name:      internal.CommandBrokenLinks,
				Aliases:   []string{"brokenlinks"},
				Usage:     "Prints a list of broken links",
				ArgsUsage: "[PATH]",
				Action:    action(internal.CommandBrokenLinks),
			},
			{
				Name:      internal.CommandIsolated,
				Aliases:   []string{"isolated"},
				Usage:     "Prints a list of notes with no incoming or outgoing links",
				ArgsUsage: "[PATH]",
				Action:    action(internal.CommandIsolated),
			},
			{
				Name:      internal.CommandSinks,
				Aliases:   []string{"sinks"},
				Usage:     "Prints a list of notes with no outgoing links",
				ArgsUsage: "[PATH]",
				Action:    action(internal.CommandSinks),
			},
			{
				Name:      internal.CommandSources,
				Aliases:   []string{"sources"},
				Usage:     "Prints a list of notes with no incoming links",
				ArgsUsage: "[PATH]",
				Action:    action(internal.CommandSources),
			},
			{
				Name:      internal.CommandTasks,
				Aliases:   []string{"tasks", "todos"},
				Usage:     "Prints a list of tasks",
				ArgsUsage: "[PATH]",
				Action:    action(internal.CommandTasks),
			},
			{
				Name:      internal.CommandUpdateBacklinks,
				Aliases:   []string{"backlinks"},
				Usage:     "Updates backlink sections in all notes",
				ArgsUsage: "[PATH]",
				Action:    action(internal.CommandUpdateBacklinks),
			},
			{
				Name:      internal.CommandRemoveBacklinks,
				Usage:     "Removes backlink sections in all notes",
				ArgsUsage: "[PATH]",
				Action:    action(internal.CommandRemoveBacklinks),
			},
			{
				Name:      internal.CommandUpdateFilenames,
				Aliases:   []string{"rename"},
				Usage:     "Updates note file names with ID and title",
				ArgsUsage: "[PATH]",
				Action:    action(internal.CommandUpdateFilenames),
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Always update names, never prompt",
					},
				},
			},
			{
				Name:      internal.CommandExport,
				Usage:     "Writes notes, links and tasks into a SQLite database",
				ArgsUsage: "[PATH]",
				Action:    action(internal.CommandExport),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path to the SQLite database",
						Sources: cli.EnvVars("NOTEEXPLORER_SQLITE_PATH"),
					},
				},
			},
			{
				Name:      internal.CommandWatch,
				Usage:     "Updates backlink sections whenever notes change",
				ArgsUsage: "[PATH]",
				Action:    action(internal.CommandWatch),
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:    "debounce",
						Usage:   "Quiet period before reacting to changes",
						Sources: cli.EnvVars("NOTEEXPLORER_DEBOUNCE"),
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
