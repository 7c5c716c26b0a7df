package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/devdiary/internal"
	"github.com/starford/devdiary/internal/compiler"
	"github.com/starford/devdiary/internal/diary"
	"github.com/starford/devdiary/internal/opener"
	pkgconfig "github.com/starford/devdiary/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		if errors.Is(err, pkgconfig.ErrNotFound) {
			return nil, fmt.Errorf("%w (run `devdiary init` first)", err)
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.ResolvePaths(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withCore loads the config, wires the diary and hands it to fn. CLI logs
// go to stderr so stdout stays clean for command output.
func withCore(ctx context.Context, cmd *cli.Command, withIndex bool, fn func(*internal.Core) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	core, err := internal.NewCore(cfg, internal.NewLogger(os.Stderr, cfg.App.LogLevel), withIndex)
	if err != nil {
		return err
	}
	defer core.Close()
	return fn(core)
}

func runInit(_ context.Context, cmd *cli.Command) error {
	written, err := internal.WriteStarter(".", cmd.Bool("force"))
	if err != nil {
		return err
	}
	for _, p := range written {
		fmt.Println("wrote", p)
	}
	fmt.Printf("Next: edit ./%s if needed, then run: devdiary doctor\n", internal.DefaultConfigFile)
	return nil
}

func runDoctor(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	fmt.Println("Config OK")
	checks := internal.Diagnose(cfg)
	internal.WriteReport(os.Stdout, checks)
	if !internal.Healthy(checks) {
		return errors.New("doctor found problems")
	}
	return nil
}

func runAdd(ctx context.Context, cmd *cli.Command) error {
	text := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if text == "" {
		return errors.New("no text provided")
	}
	return withCore(ctx, cmd, false, func(core *internal.Core) error {
		added, err := core.Service.AddNote(ctx, cmd.String("date"), text)
		if err != nil {
			return err
		}
		fmt.Printf("Added to inbox: %s\n", added.Path)
		return nil
	})
}

func runNote(ctx context.Context, cmd *cli.Command) error {
	fmt.Println("Enter your note (finish with a single '.' line):")
	text, err := readNote(os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	return withCore(ctx, cmd, false, func(core *internal.Core) error {
		added, err := core.Service.AddNote(ctx, cmd.String("date"), text)
		if err != nil {
			return err
		}
		fmt.Printf("Added to inbox: %s\n", added.Path)
		return nil
	})
}

func runInbox(ctx context.Context, cmd *cli.Command) error {
	return withCore(ctx, cmd, false, func(core *internal.Core) error {
		view, err := core.Service.Inbox(ctx, cmd.String("date"))
		if err != nil {
			return err
		}
		fmt.Println(diary.FormatInbox(view, core.Service.Location()))
		return nil
	})
}

func runCompile(ctx context.Context, cmd *cli.Command) error {
	return withCore(ctx, cmd, false, func(core *internal.Core) error {
		res, err := core.Service.Compile(ctx, compiler.Request{
			Date:        cmd.String("date"),
			Collection:  strings.TrimSpace(cmd.String("collection")),
			TitleSuffix: strings.TrimSpace(cmd.String("title")),
			TopicsCSV:   strings.TrimSpace(cmd.String("topics")),
		})
		if err != nil {
			return err
		}
		fmt.Printf("Wrote: %s\n", res.OutputPath)
		if cmd.Bool("open") {
			return opener.New().Open(ctx, res.OutputPath)
		}
		return nil
	})
}

func runSearch(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return errors.New("no query provided")
	}
	return withCore(ctx, cmd, true, func(core *internal.Core) error {
		if err := core.Service.Reindex(ctx); err != nil {
			return err
		}
		results, err := core.Service.Search(ctx, query, int(cmd.Int("limit")))
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		for _, r := range results {
			fmt.Printf("%s  (%s) %s\n", r.Date, r.Section, r.Text)
		}
		return nil
	})
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithOpener(opener.New()),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
}

func dateFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "date",
		Usage: "Target date as YYYY-MM-DD (default: today)",
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "devdiary",
		Usage:   "Capture dev notes through the day and compile them into Markdown diary entries",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: internal.DefaultConfigFile,
				Value:       internal.DefaultConfigFile,
				Sources:     cli.EnvVars("DEVDIARY_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Create config and template in the current directory",
				Action: runInit,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "Overwrite existing files"},
				},
			},
			{
				Name:   "doctor",
				Usage:  "Validate config and show resolved paths",
				Action: runDoctor,
			},
			{
				Name:      "add",
				Usage:     "Append a single note to the inbox (supports ctx:/act:/obs:/open: prefixes)",
				ArgsUsage: "<text...>",
				Action:    runAdd,
				Flags:     []cli.Flag{dateFlag()},
			},
			{
				Name:   "note",
				Usage:  "Capture a multi-line note (finish with a single '.' line)",
				Action: runNote,
				Flags:  []cli.Flag{dateFlag()},
			},
			{
				Name:   "inbox",
				Usage:  "Print the inbox for a date",
				Action: runInbox,
				Flags:  []cli.Flag{dateFlag()},
			},
			{
				Name:   "compile",
				Usage:  "Compile the inbox into a Markdown entry using the collection's template",
				Action: runCompile,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "collection", Usage: "Collection key from config (e.g. devDiary)", Required: true},
					&cli.StringFlag{Name: "title", Usage: "Title suffix (the date and \" - \" are prepended)", Required: true},
					&cli.StringFlag{Name: "topics", Usage: "Comma separated topics", Required: true},
					dateFlag(),
					&cli.BoolFlag{Name: "open", Usage: "Open the compiled file after writing"},
				},
			},
			{
				Name:      "search",
				Usage:     "Search notes across all days",
				ArgsUsage: "<query...>",
				Action:    runSearch,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum results", Value: 20},
				},
			},
			{
				Name:    "serve",
				Aliases: []string{"dashboard"},
				Usage:   "Run the local dashboard server",
				Action:  runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Serve diary tools to an MCP client over stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
