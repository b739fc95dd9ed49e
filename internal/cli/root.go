package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"rewriter-cli/internal/api"
	"rewriter-cli/internal/config"
	"rewriter-cli/internal/format"
	"rewriter-cli/internal/logging"
	"rewriter-cli/internal/tui"
	"rewriter-cli/internal/workflow"

	"github.com/spf13/cobra"
)

type App struct {
	ConfigPath string
	APIURL     string
	APIKey     string
	PrettyJSON bool
	Format     string
	LogFile    string
	LogLevel   string

	cfg      config.Config
	log      *slog.Logger
	closeLog func() error
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:           "rewriter",
		Short:         "Article Rewriter control panel (TUI + headless commands)",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive control panel
  rewriter

  # List blogs for an API key
  REWRITER_API_KEY=... rewriter blogs

  # Fetch articles from a sitemap (shortcut for: rewriter fetch <url>)
  rewriter https://example.com/sitemap.xml
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := app.load(cmd); err != nil {
			return writeErr(cmd, err)
		}
		return nil
	}

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.closeLog != nil {
			return app.closeLog()
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Config file (default: $REWRITER_CONFIG or ~/.rewriter/config.yaml)")
	cmd.PersistentFlags().StringVar(&app.APIURL, "api-url", "", "Backend base URL (overrides api.base_url and REWRITER_API_URL)")
	cmd.PersistentFlags().StringVar(&app.APIKey, "api-key", "", "API key for this run (prefer REWRITER_API_KEY; never saved)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("REWRITER_FORMAT", "json"), "Output format (json|yaml)")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", "", "Append structured logs to this file")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")

	cmd.AddCommand(newBlogsCmd(app))
	cmd.AddCommand(newFetchCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// load resolves config with precedence flags > env > file > defaults and opens
// the log. The TUI owns the terminal, so it logs to a file by default.
// Commands that repair or explain the config run on defaults when the file is
// unusable.
func (app *App) load(cmd *cobra.Command) error {
	lenient := toleratesBrokenConfig(cmd)
	cfg, loadErr := config.Load(app.ConfigPath)
	if loadErr != nil {
		if !lenient {
			return loadErr
		}
		cfg = config.Default()
	}
	if v := strings.TrimSpace(app.APIURL); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(app.APIKey); v != "" {
		cfg.API.Key = v
	}
	if v := strings.TrimSpace(app.LogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(app.LogFile); v != "" {
		cfg.Log.File = v
	}
	if err := cfg.Validate(); err != nil {
		if !lenient {
			return fmt.Errorf("config: %w", err)
		}
		if loadErr == nil {
			loadErr = err
		}
	}

	logPath := cfg.Log.File
	if logPath == "" && cmd.Root() == cmd {
		logPath = logging.DefaultPath()
	}
	logger, closer, err := logging.Open(logPath, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	if loadErr != nil {
		logger.Warn("ignoring unusable config", "command", cmd.CommandPath(), "err", loadErr)
	}
	app.cfg, app.log, app.closeLog = cfg, logger, closer
	return nil
}

// toleratesBrokenConfig reports whether cmd must still run when the config
// file fails to parse or validate.
func toleratesBrokenConfig(cmd *cobra.Command) bool {
	path := strings.TrimSpace(cmd.CommandPath())
	for _, p := range []string{"rewriter config init", "rewriter config path", "rewriter docs"} {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (app *App) client() *api.Client {
	return api.New(app.cfg.API.BaseURL, app.cfg.API.Timeout.Std())
}

func (app *App) workflowOptions() workflow.Options {
	return workflow.Options{
		DefaultSitemapURL: app.cfg.Sitemap.DefaultURL,
		NotificationTTL:   app.cfg.Notifications.TTL.Std(),
		ScheduleInterval:  app.cfg.Schedule.IntervalMinutes,
		Location:          app.cfg.Schedule.Location(),
		Logger:            app.log,
	}
}

// newController builds a headless controller whose notifications go to stderr.
func (app *App) newController(cmd *cobra.Command) *workflow.Controller {
	ctrl := workflow.New(app.client(), newPrintView(cmd.ErrOrStderr()), app.workflowOptions())
	ctrl.SetAPIKey(app.cfg.API.Key)
	return ctrl
}

func runTUI(cmd *cobra.Command, app *App) error {
	app.log.Info("starting tui", "api_url", app.cfg.API.BaseURL)
	err := tui.Run(app.client(), tui.Options{
		Workflow: app.workflowOptions(),
		APIKey:   app.cfg.API.Key,
		Context:  cmd.Context(),
	})
	if err != nil {
		app.log.Error("tui exited", "err", err)
		return writeErr(cmd, err)
	}
	return nil
}

func envOr(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), "error:", err.Error())
	return err
}
