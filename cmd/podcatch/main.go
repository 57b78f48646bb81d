package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"podcatch/internal/config"
	"podcatch/internal/launchd"
	"podcatch/internal/list"
	"podcatch/internal/run"
	"podcatch/internal/server"
	"podcatch/internal/setup"
)

func main() {
	app := &cli.Command{
		Name:  "podcatch",
		Usage: "Download new items from your podcast feeds",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Fetch all configured feeds and download new items",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to config file", Value: config.DefaultConfigPath()},
					&cli.StringFlag{Name: "history", Usage: "Path to history database (overrides config)"},
					&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Enable debug logging"},
					&cli.BoolFlag{Name: "no-progress", Usage: "Disable download progress bars"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					opts := run.Options{
						ConfigPath:  c.String("config"),
						HistoryPath: c.String("history"),
						NoProgress:  c.Bool("no-progress"),
					}
					return run.Run(ctx, opts, newLogger(c.Bool("verbose")))
				},
			},
			{
				Name:  "history",
				Usage: "List recorded downloads",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to config file", Value: config.DefaultConfigPath()},
					&cli.StringFlag{Name: "history", Usage: "Path to history database (overrides config)"},
					&cli.StringFlag{Name: "feed", Usage: "Only show downloads from this feed"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum rows to show (default: 20)", Value: 20},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					opts := list.Options{
						HistoryPath: config.HistoryPathFor(c.String("config"), c.String("history")),
						Feed:        c.String("feed"),
						Limit:       c.Int("limit"),
					}
					return list.Run(ctx, opts)
				},
			},
			{
				Name:  "setup",
				Usage: "Setup Podcatch's configuration",
				Action: func(ctx context.Context, c *cli.Command) error {
					return setup.Run(ctx)
				},
			},
			{
				Name:  "server",
				Usage: "Run MCP server on stdio",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to config file", Value: config.DefaultConfigPath()},
					&cli.StringFlag{Name: "history", Usage: "Path to history database (overrides config)"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					opts := server.Options{
						ConfigPath:  c.String("config"),
						HistoryPath: config.HistoryPathFor(c.String("config"), c.String("history")),
					}
					return server.Run(ctx, opts)
				},
			},
			{
				Name:  "schedule",
				Usage: "Manage the launchd agent that runs podcatch periodically (macOS)",
				Commands: []*cli.Command{
					{
						Name:  "install",
						Usage: "Install launchd agent",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "label", Value: launchd.DefaultLabel, Usage: "launchd label"},
							&cli.IntFlag{Name: "interval-minutes", Value: 60, Usage: "minutes between runs"},
							&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "config file passed to each run"},
							&cli.StringFlag{Name: "log-file", Usage: "agent log file path"},
							&cli.StringFlag{Name: "plist", Usage: "custom plist path (default ~/Library/LaunchAgents/<label>.plist)"},
						},
						Action: func(ctx context.Context, c *cli.Command) error {
							exe, _ := os.Executable()
							if strings.TrimSpace(exe) == "" {
								return fmt.Errorf("cannot discover program path")
							}
							args := []string{"run", "--no-progress"}
							if v := c.String("config"); strings.TrimSpace(v) != "" {
								args = append(args, "--config", v)
							}
							opt := launchd.Options{
								Label:           c.String("label"),
								IntervalMinutes: c.Int("interval-minutes"),
								ProgramPath:     exe,
								ProgramArgs:     args,
								LogPath:         c.String("log-file"),
								PlistPath:       c.String("plist"),
							}
							path, err := launchd.Install(opt)
							if err != nil {
								return err
							}
							fmt.Printf("launchd agent installed and loaded: %s\n", path)
							return nil
						},
					},
					{
						Name:  "uninstall",
						Usage: "Uninstall launchd agent",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "label", Value: launchd.DefaultLabel, Usage: "launchd label"},
							&cli.StringFlag{Name: "plist", Usage: "path to plist (default ~/Library/LaunchAgents/<label>.plist)"},
						},
						Action: func(ctx context.Context, c *cli.Command) error {
							if err := launchd.Uninstall(c.String("label"), c.String("plist")); err != nil {
								return err
							}
							fmt.Println("launchd agent unloaded and removed")
							return nil
						},
					},
					{
						Name:  "status",
						Usage: "Show launchd agent status",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "label", Value: launchd.DefaultLabel, Usage: "launchd label"},
							&cli.StringFlag{Name: "plist", Usage: "path to plist (default ~/Library/LaunchAgents/<label>.plist)"},
						},
						Action: func(ctx context.Context, c *cli.Command) error {
							label := c.String("label")
							loaded, state := launchd.Status(label)
							fmt.Printf("agent %s: %s\n", label, state)
							plistPath := c.String("plist")
							if strings.TrimSpace(plistPath) == "" {
								if p, err := launchd.DefaultAgentPath(label); err == nil {
									plistPath = p
								}
							}
							if loaded && plistPath != "" {
								if secs, err := launchd.StartInterval(plistPath); err == nil {
									fmt.Printf("runs every %d minutes\n", secs/60)
								}
							}
							return nil
						},
					},
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
