// Package cli implements the agent-recall CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/agent-recall/internal/bank"
	"github.com/rcliao/agent-recall/internal/client"
	"github.com/rcliao/agent-recall/internal/config"
)

var (
	configPath string
	formatFlag string
	verbose    bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "agent-recall",
	Short: "Long-term memory for AI agents",
	Long:  "Inspect and operate the remote memory bank that agent-recall injects into and captures from.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./config.yaml or $XDG_CONFIG_HOME/agent-recall/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json, yaml or text")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig() config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitErr("load config", err)
	}
	return cfg
}

func newClient(cfg config.Config, logger *slog.Logger) *client.Client {
	return client.New(cfg.BaseURL, cfg.Namespace, client.WithLogger(logger))
}

// connect makes sure the configured bank exists before a command touches it.
func connect(cmd *cobra.Command, cfg config.Config) (*client.Client, *bank.Manager) {
	logger := newLogger()
	c := newClient(cfg, logger)
	m := bank.NewManager(c, cfg.BankID, cfg.Mission, logger)
	m.Ensure(cmd.Context())
	return c, m
}

// output writes v in the selected format. text renders the text format; nil
// falls back to JSON.
func output(cmd *cobra.Command, v any, text func(w io.Writer)) {
	w := cmd.OutOrStdout()
	switch formatFlag {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			exitErr("encode yaml", err)
		}
		enc.Close()
	case "text":
		if text != nil {
			text(w)
			return
		}
		fallthrough
	case "json":
		b, _ := json.MarshalIndent(v, "", "  ")
		fmt.Fprintln(w, string(b))
	default:
		exitErr("output", fmt.Errorf("unknown format %q (want json, yaml or text)", formatFlag))
	}
}

func humanTime(t time.Time) string {
	return humanize.Time(t)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
