package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "reflect [query]",
		Short: "Ask the memory service a question",
		Long:  "Ask the service to reason over the bank's memories and print its answer as plain text.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runReflect,
	}

	RootCmd.AddCommand(cmd)
}

func runReflect(cmd *cobra.Command, args []string) {
	query := strings.Join(args, " ")

	c, m := connect(cmd, loadConfig())
	res, err := c.Reflect(cmd.Context(), m.BankID(), query)
	if err != nil {
		exitErr("reflect", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(res.Answer))
}
