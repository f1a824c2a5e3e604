package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-recall/internal/chunker"
	"github.com/rcliao/agent-recall/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import memories from JSON",
		Long:  "Read a JSON array of memories from stdin (the format produced by export) and submit them to the bank. The service re-extracts facts, so ids are not preserved.",
		Args:  cobra.NoArgs,
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		exitErr("read stdin", err)
	}

	var memories []model.Memory
	if err := json.Unmarshal(data, &memories); err != nil {
		exitErr("parse json", err)
	}

	items := importItems(memories)
	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), `{"ok":true,"submitted":0,"imported":0}`)
		return
	}

	c, m := connect(cmd, loadConfig())
	res, err := c.Retain(cmd.Context(), m.BankID(), items)
	if err != nil {
		exitErr("import", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"submitted":%d,"imported":%d}`+"\n", len(items), res.ItemsCount)
}

// importItems converts exported memories into retain items. Blank text is
// skipped, oversized text is split, and the original mention time is kept
// when there is one.
func importItems(memories []model.Memory) []model.CaptureItem {
	var items []model.CaptureItem
	for _, m := range memories {
		var timestamp string
		if m.MentionedAt != nil {
			timestamp = m.MentionedAt.UTC().Format(time.RFC3339)
		}
		for _, piece := range chunker.Split(m.Text, chunker.DefaultMaxRunes) {
			items = append(items, model.CaptureItem{
				Content:    piece,
				Context:    m.Context,
				DocumentID: m.DocumentID,
				Timestamp:  timestamp,
			})
		}
	}
	return items
}
