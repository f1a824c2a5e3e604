package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-recall/internal/model"
)

// exportLimit is effectively unlimited for a single bank.
const exportLimit = 100000

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export memories as JSON",
		Long:  "Export every memory of the bank as a JSON array. The output can be fed back through import.",
		Args:  cobra.NoArgs,
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	c, m := connect(cmd, loadConfig())

	res, err := c.ListMemories(cmd.Context(), m.BankID(), exportLimit)
	if err != nil {
		exitErr("export", err)
	}
	if res.Items == nil {
		res.Items = []model.Memory{}
	}

	b, _ := json.MarshalIndent(res.Items, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}
