package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-recall/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search memories semantically",
		Long:  "Recall the memories most relevant to the query, in the service's relevance order.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().IntP("limit", "l", 0, "Max results (default: configured recall limit)")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	cfg := loadConfig()
	if limit <= 0 {
		limit = cfg.RecallLimit
	}
	c, m := connect(cmd, cfg)

	res, err := c.Recall(cmd.Context(), m.BankID(), query, limit)
	if err != nil {
		exitErr("search", err)
	}

	results := res.Results
	if results == nil {
		results = []model.Memory{}
	}
	output(cmd, results, func(w io.Writer) { writeMemoriesText(w, results) })
}

func writeMemoriesText(w io.Writer, memories []model.Memory) {
	if len(memories) == 0 {
		fmt.Fprintln(w, "no memories")
		return
	}
	for i, m := range memories {
		kind := m.Kind
		if kind == "" {
			kind = model.KindWorld
		}
		line := fmt.Sprintf("%d. [%s] %s (id: %s)", i+1, kind, m.Text, m.ID)
		if m.MentionedAt != nil {
			line += ", " + humanTime(*m.MentionedAt)
		}
		fmt.Fprintln(w, line)
	}
}
