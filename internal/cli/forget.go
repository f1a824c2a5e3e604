package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:     "forget [id]",
		Aliases: []string{"rm"},
		Short:   "Delete a memory",
		Args:    cobra.ExactArgs(1),
		Run:     runForget,
	}

	RootCmd.AddCommand(cmd)
}

func runForget(cmd *cobra.Command, args []string) {
	id := args[0]

	c, m := connect(cmd, loadConfig())
	res, err := c.DeleteMemory(cmd.Context(), m.BankID(), id)
	if err != nil {
		exitErr("forget", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":%t,"id":%q}`+"\n", res.Success, id)
}
