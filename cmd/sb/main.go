package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sprintboard/internal/app"
	"sprintboard/internal/config"
	"sprintboard/internal/db"
	"sprintboard/internal/engine"
	"sprintboard/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "sb",
	Short: "Sprintboard CLI",
	Long: `Sprintboard tracks tasks across sprints and backlogs.
- Logs hold tasks. An active log owns a time window; an inactive log (like the Backlog) never opens.
- Tasks carry a title, description, story point (1-10), priority, status and tags.
- Every change is made on behalf of an actor (--actor-id) and recorded in the task history.
- Status can only change while the task's log is open; tasks only move between closed logs.
- Event log: every write is also appended to the board events, view with 'sb events tail'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("SPRINTBOARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("workspace", "w", ".", "workspace directory")
	flags.Bool("json", false, "output JSON")
	flags.String("actor-id", "local-user", "actor identifier")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text, json)")
	flags.String("metrics-file", "", "write Prometheus metrics to this textfile after each command")
	for _, name := range []string{"workspace", "json", "actor-id", "log-level", "log-format", "metrics-file"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(refreshCmd())
	rootCmd.AddCommand(eventsCmd())
}

// --- helpers ---

func loadConfig() (*config.Config, error) {
	return app.LoadConfig(viper.GetString("workspace"), viper.GetString("log-level"), viper.GetString("log-format"))
}

func withEngine(ctx context.Context, fn func(context.Context, *engine.Engine) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if mf := viper.GetString("metrics-file"); mf != "" {
		cfg.Metrics.Textfile = mf
	}
	logger, err := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output})
	if err != nil {
		return err
	}
	conn, err := db.OpenAndBootstrap(db.Config{Workspace: viper.GetString("workspace")})
	if err != nil {
		return err
	}
	defer conn.Close()
	e := engine.New(conn, cfg, engine.WithLogger(logger))
	err = fn(ctx, e)
	if werr := e.WriteMetrics(); werr != nil {
		logger.Warn("metrics export failed", "error", werr)
	}
	return err
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"}

// parseTime reads a timestamp, taking zone-less input in the board timezone.
func parseTime(cfg *config.Config, s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, cfg.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q (use RFC3339 or YYYY-MM-DD HH:MM)", s)
}

func parseOptionalTime(cfg *config.Config, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseTime(cfg, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func displayTime(cfg *config.Config, t *time.Time) string {
	if t == nil {
		return "-"
	}
	return cfg.FormatTime(*t)
}

func displayStamp(cfg *config.Config, s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return cfg.FormatTime(t)
}
