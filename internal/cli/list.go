package cli

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rcliao/agent-recall/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memories",
		Args:  cobra.NoArgs,
		Run:   runList,
	}

	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("ids-only", false, "Only output memory ids")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	idsOnly, _ := cmd.Flags().GetBool("ids-only")

	c, m := connect(cmd, loadConfig())
	res, err := c.ListMemories(cmd.Context(), m.BankID(), limit)
	if err != nil {
		exitErr("list", err)
	}

	if idsOnly {
		for _, mem := range res.Items {
			fmt.Fprintln(cmd.OutOrStdout(), mem.ID)
		}
		return
	}

	if res.Items == nil {
		res.Items = []model.Memory{}
	}
	output(cmd, res, func(w io.Writer) {
		writeMemoriesText(w, res.Items)
		if res.Total > len(res.Items) {
			fmt.Fprintf(w, "(%s of %s shown)\n", humanize.Comma(int64(len(res.Items))), humanize.Comma(int64(res.Total)))
		}
	})
}
