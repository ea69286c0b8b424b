package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/raido/internal"
	"github.com/starford/raido/internal/history"
	"github.com/starford/raido/internal/hooks"
	"github.com/starford/raido/internal/mcpserver"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/skillfile"
	"github.com/starford/raido/internal/trigger"
	pkgconfig "github.com/starford/raido/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOrDefault(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// hookLogger logs to stderr only: stdout belongs to the host protocol.
func hookLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// hookRunner builds the pipeline for one hook invocation. The envelope's
// cwd overrides a default workspace root so hooks follow the host's
// project directory without per-project config files.
func hookRunner(cmd *cli.Command, env *hooks.Envelope) (*internal.Config, *hooks.Runner, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	if env.Cwd != "" && cfg.Workspace.Root == "." {
		cfg.Workspace.Root = env.Cwd
	}

	runner, hist, err := internal.NewRunner(cfg, hookLogger())
	if err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() {
		if hist != nil {
			_ = hist.Close()
		}
	}
	return cfg, runner, cleanup, nil
}

func runPostTool(ctx context.Context, cmd *cli.Command) error {
	env := hooks.Decode(os.Stdin)
	_, runner, cleanup, err := hookRunner(cmd, env)
	if err != nil {
		// Hooks never fail the host.
		fmt.Fprintf(os.Stderr, "raido: %v\n", err)
		return nil
	}
	defer cleanup()

	runner.PostTool(env)
	return nil
}

func runSessionEnd(ctx context.Context, cmd *cli.Command) error {
	env := hooks.Decode(os.Stdin)
	cfg, runner, cleanup, err := hookRunner(cmd, env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "raido: %v\n", err)
		return nil
	}
	defer cleanup()

	rendered := runner.SessionEnd(ctx, cfg.Build.Command, cfg.Build.Timeout())
	if rendered != "" {
		fmt.Print(rendered)
	}
	return nil
}

func runUserPrompt(ctx context.Context, cmd *cli.Command) error {
	env := hooks.Decode(os.Stdin)
	_, runner, cleanup, err := hookRunner(cmd, env)
	if err != nil {
		// Degrade to passing the prompt through untouched.
		fmt.Fprintf(os.Stderr, "raido: %v\n", err)
		fmt.Print(env.Prompt)
		return nil
	}
	defer cleanup()

	act := runner.UserPrompt(env.Prompt)
	fmt.Print(act.Prompt)
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runner, hist, err := internal.NewRunner(cfg, hookLogger())
	if err != nil {
		return err
	}
	if hist != nil {
		defer hist.Close()
	}

	srv := mcpserver.New(runner, hist, cfg.Build.Command, cfg.Build.Timeout())
	return srv.ServeStdio()
}

func runHistory(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	hist, err := history.Open(cfg.SQLitePath())
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer hist.Close()

	checks, err := hist.RecentChecks(int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	if len(checks) == 0 {
		fmt.Println("no checks recorded")
		return nil
	}
	for _, c := range checks {
		status := "ok"
		if !c.Succeeded {
			status = "FAIL"
		}
		fmt.Printf("%s  %-4s  %2d issue(s)  %s\n",
			c.StartedAt.Local().Format("2006-01-02 15:04:05"), status, c.IssueCount, c.Command)
	}
	return nil
}

func runRulesImport(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dir := cmd.Args().First()
	if dir == "" {
		dir = ".claude/skills"
	}

	skills, err := skillfile.LoadDir(dir)
	if err != nil {
		return fmt.Errorf("scan skills: %w", err)
	}
	if len(skills) == 0 {
		fmt.Println("no SKILL.md files found")
		return nil
	}

	existing, err := trigger.LoadRules(cfg.RulesPath())
	if err != nil {
		// A corrupt rules file is replaced rather than merged.
		existing = nil
	}

	known := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		known[r.Name] = struct{}{}
	}

	added := 0
	merged := append([]models.Rule{}, existing...)
	for _, s := range skills {
		if _, ok := known[s.Name]; ok {
			continue
		}
		merged = append(merged, s.Rule())
		added++
	}

	data, err := trigger.MarshalRules(merged)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfg.RulesPath(), data, 0o644); err != nil {
		return fmt.Errorf("write rules: %w", err)
	}

	fmt.Printf("imported %d skill(s), %d new rule(s) -> %s\n", len(skills), added, cfg.RulesPath())
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "raido",
		Usage: "Session hook pipeline for coding agents: edit tracking, build verification, and skill reminders",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "raido.yaml",
				Value:       "raido.yaml",
				Sources:     cli.EnvVars("RAIDO_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "hook",
				Usage: "Host lifecycle hooks (read the host envelope from stdin)",
				Commands: []*cli.Command{
					{Name: "post-tool", Usage: "Record a mutating tool call", Action: runPostTool},
					{Name: "session-end", Usage: "Run the build check on pending edits", Action: runSessionEnd},
					{Name: "user-prompt", Usage: "Prepend skill reminders to a prompt", Action: runUserPrompt},
				},
			},
			{Name: "serve", Usage: "Run the status API with SSE events and rules hot-reload", Action: runServe},
			{Name: "mcp", Usage: "Serve the pipeline over MCP stdio", Action: runMCP},
			{
				Name:  "history",
				Usage: "Show recent build checks",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Number of checks to show", Value: 20},
				},
				Action: runHistory,
			},
			{
				Name:  "rules",
				Usage: "Manage skill trigger rules",
				Commands: []*cli.Command{
					{
						Name:      "import",
						Usage:     "Generate rules from SKILL.md files",
						ArgsUsage: "[skills-dir]",
						Action:    runRulesImport,
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
