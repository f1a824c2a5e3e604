package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-recall/internal/sanitize"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context [prompt]",
		Short: "Preview the memory context injected for a prompt",
		Long:  "Recall memories for the prompt exactly as auto-recall does and print the block that would be prepended.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runContext,
	}

	cmd.Flags().IntP("limit", "l", 0, "Max memories (default: configured recall limit)")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	prompt := strings.TrimSpace(strings.Join(args, " "))

	cfg := loadConfig()
	if limit <= 0 {
		limit = cfg.RecallLimit
	}
	c, m := connect(cmd, cfg)

	res, err := c.Recall(cmd.Context(), m.BankID(), prompt, limit)
	if err != nil {
		exitErr("context", err)
	}

	// An empty block prints nothing, matching what the agent would see.
	if block := sanitize.FormatContext(res.Results); block != "" {
		fmt.Fprintln(cmd.OutOrStdout(), block)
	}
}
