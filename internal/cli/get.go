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
		Use:   "get [id]",
		Short: "Retrieve a memory",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	c, m := connect(cmd, loadConfig())

	mem, err := c.GetMemory(cmd.Context(), m.BankID(), args[0])
	if err != nil {
		exitErr("get", err)
	}

	output(cmd, mem, func(w io.Writer) { writeMemoryText(w, mem) })
}

func writeMemoryText(w io.Writer, m *model.Memory) {
	kind := m.Kind
	if kind == "" {
		kind = model.KindWorld
	}
	fmt.Fprintf(w, "id:       %s\n", m.ID)
	fmt.Fprintf(w, "kind:     %s\n", kind)
	fmt.Fprintf(w, "text:     %s\n", m.Text)
	if m.Context != "" {
		fmt.Fprintf(w, "context:  %s\n", m.Context)
	}
	if len(m.Entities) > 0 {
		fmt.Fprintf(w, "entities: %s\n", strings.Join(m.Entities, ", "))
	}
	if m.DocumentID != "" {
		fmt.Fprintf(w, "document: %s\n", m.DocumentID)
	}
	if m.MentionedAt != nil {
		fmt.Fprintf(w, "mentioned %s\n", humanTime(*m.MentionedAt))
	}
}
