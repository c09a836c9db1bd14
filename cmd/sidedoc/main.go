// cmd/sidedoc/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"sidedoc/internal/builder"
	"sidedoc/internal/config"
	"sidedoc/internal/scaffold"
	"sidedoc/internal/server"
)

const (
	contentDir  = "content"
	templateDir = "templates"
	staticDir   = "static"
	outputDir   = "public"
	configFile  = "site.yaml"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newApp().RunContext(ctx, os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "sidedoc",
		Usage:     "a static documentation site generator",
		UsageText: "sidedoc [--debug] [--unsafe] gen\nsidedoc [--debug] [--unsafe] serve [--port N]\nsidedoc new site <name> | <type> <title>",
		// Shared by gen and serve; they go before the command.
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging.",
			},
			&cli.BoolFlag{
				Name:  "unsafe",
				Usage: "Disable HTML sanitization. Allows all raw HTML.",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "gen",
				Usage:  "Generate the site from content",
				Action: genAction,
			},
			{
				Name:  "serve",
				Usage: "Run a local dev server with auto-rebuild",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "port",
						Value: 1313,
						Usage: "Port for the local development server.",
					},
				},
				Action: serveAction,
			},
			{
				Name:      "new",
				Usage:     "Create a new site or a new content page",
				ArgsUsage: "site <name> | <type> <title>",
				Action:    newAction,
			},
		},
	}
}

func buildOptions(c *cli.Context) builder.BuildOptions {
	level := slog.LevelInfo
	if c.Bool("debug") {
		level = slog.LevelDebug
	}

	return builder.BuildOptions{
		Unsafe: c.Bool("unsafe"),
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})),
	}
}

func genAction(c *cli.Context) error {
	opts := buildOptions(c)
	opts.CleanDestination = true

	fmt.Println("--- Generating site from content ---")
	start := time.Now()

	pageCount, err := runBuild(c.Context, opts)
	if err != nil {
		return err
	}

	fmt.Printf("Generated %d pages in %s.\n", pageCount, time.Since(start))
	return nil
}

func serveAction(c *cli.Context) error {
	buildFunc := func(ctx context.Context, opts builder.BuildOptions) error {
		pageCount, err := runBuild(ctx, opts)
		if err != nil {
			return err
		}
		fmt.Printf("Site: %d pages generated.\n", pageCount)
		return nil
	}

	return server.Run(c.Context, server.Options{
		Port:       c.Int("port"),
		OutputDir:  outputDir,
		WatchPaths: []string{contentDir, templateDir, staticDir, configFile},
	}, buildFunc, buildOptions(c))
}

func newAction(c *cli.Context) error {
	args := c.Args()
	if args.Len() < 2 {
		return cli.ShowSubcommandHelp(c)
	}

	if args.Get(0) == "site" {
		return scaffold.CreateNewSite(args.Get(1))
	}

	_, err := scaffold.CreateNewContent(args.Get(0), args.Get(1), configFile)
	return err
}

// runBuild loads config and templates fresh so that edits are picked up on
// every rebuild.
func runBuild(ctx context.Context, opts builder.BuildOptions) (int, error) {
	siteCfg, err := config.LoadSiteConfig(configFile)
	if err != nil {
		return 0, fmt.Errorf("load site config: %w", err)
	}

	tmpl, err := builder.LoadTemplates(templateDir, siteCfg.Template)
	if err != nil {
		return 0, fmt.Errorf("failed to load templates: %w", err)
	}

	pageCount, err := builder.BuildSite(ctx, outputDir, contentDir, staticDir, siteCfg, tmpl, opts)
	if err != nil {
		return 0, fmt.Errorf("site generation failed: %w", err)
	}
	return pageCount, nil
}
