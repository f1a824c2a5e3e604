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
		Use:   "entities",
		Short: "List entities resolved in the bank",
		Args:  cobra.NoArgs,
		Run:   runEntities,
	}

	RootCmd.AddCommand(cmd)
}

func runEntities(cmd *cobra.Command, args []string) {
	c, m := connect(cmd, loadConfig())

	res, err := c.ListEntities(cmd.Context(), m.BankID())
	if err != nil {
		exitErr("list entities", err)
	}
	if res.Items == nil {
		res.Items = []model.Entity{}
	}

	output(cmd, res.Items, func(w io.Writer) {
		for _, e := range res.Items {
			fmt.Fprintf(w, "%s (%s mentions)\n", e.CanonicalName, humanize.Comma(int64(e.MentionCount)))
		}
	})
}
