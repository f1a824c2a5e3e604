package cli

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rcliao/agent-recall/internal/config"
)

type statusReport struct {
	Healthy  bool          `json:"healthy" yaml:"healthy"`
	Config   config.Config `json:"config" yaml:"config"`
	Memories *int          `json:"memories,omitempty" yaml:"memories,omitempty"`
	Entities *int          `json:"entities,omitempty" yaml:"entities,omitempty"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show service health, configuration and bank counts",
		Long:  "Check the memory service, print the effective configuration and, when reachable, how many memories and entities the bank holds.",
		Args:  cobra.NoArgs,
		Run:   runStatus,
	}

	RootCmd.AddCommand(cmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	logger := newLogger()
	c := newClient(cfg, logger)
	ctx := cmd.Context()

	report := statusReport{Config: cfg, Healthy: c.Health(ctx)}
	if report.Healthy {
		// Counts are best effort: the bank may not exist yet.
		if list, err := c.ListMemories(ctx, cfg.BankID, 1); err == nil {
			n := max(list.Total, len(list.Items))
			report.Memories = &n
		} else {
			logger.Debug("count memories", "component", "cli", "err", err)
		}
		if ents, err := c.ListEntities(ctx, cfg.BankID); err == nil {
			n := len(ents.Items)
			report.Entities = &n
		} else {
			logger.Debug("count entities", "component", "cli", "err", err)
		}
	}

	output(cmd, report, func(w io.Writer) { writeStatusText(w, report) })
}

func writeStatusText(w io.Writer, r statusReport) {
	health := "unreachable"
	if r.Healthy {
		health = "healthy"
	}
	fmt.Fprintf(w, "service:      %s (%s)\n", r.Config.BaseURL, health)
	fmt.Fprintf(w, "bank:         %s/%s\n", r.Config.Namespace, r.Config.BankID)
	fmt.Fprintf(w, "memories:     %s\n", count(r.Memories))
	fmt.Fprintf(w, "entities:     %s\n", count(r.Entities))
	fmt.Fprintf(w, "auto-recall:  %s (limit %d)\n", onOff(r.Config.AutoRecall), r.Config.RecallLimit)
	fmt.Fprintf(w, "auto-capture: %s (last %d messages)\n", onOff(r.Config.AutoCapture), r.Config.CaptureMaxMessages)
}

func count(n *int) string {
	if n == nil {
		return "unknown"
	}
	return humanize.Comma(int64(*n))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
