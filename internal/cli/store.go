package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/rcliao/agent-recall/internal/chunker"
	"github.com/rcliao/agent-recall/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "store [text]",
		Short: "Store a memory",
		Long:  "Submit text for fact extraction. Text can be a positional arg or piped via stdin. Long text is split into pieces that share one document id.",
		Run:   runStore,
	}

	cmd.Flags().String("context", "stored from cli", "Where the information came from")
	cmd.Flags().String("document", "", "Document id grouping related items (default: a new id when text is split)")
	cmd.Flags().Int("max-chars", chunker.DefaultMaxRunes, "Largest piece submitted as one item")

	RootCmd.AddCommand(cmd)
}

func runStore(cmd *cobra.Command, args []string) {
	label, _ := cmd.Flags().GetString("context")
	documentID, _ := cmd.Flags().GetString("document")
	maxChars, _ := cmd.Flags().GetInt("max-chars")

	var text string
	if len(args) > 0 {
		text = strings.Join(args, " ")
	} else if in := cmd.InOrStdin(); piped(in) {
		b, err := io.ReadAll(in)
		if err != nil {
			exitErr("read stdin", err)
		}
		text = string(b)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		exitErr("store", fmt.Errorf("text is required (positional arg or stdin)"))
	}

	now := time.Now()
	pieces := chunker.Split(text, maxChars)
	if len(pieces) > 1 && documentID == "" {
		documentID = ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
	}
	items := make([]model.CaptureItem, len(pieces))
	for i, p := range pieces {
		items[i] = model.CaptureItem{
			Content:    p,
			Context:    label,
			DocumentID: documentID,
			Timestamp:  now.UTC().Format(time.RFC3339),
		}
	}

	c, m := connect(cmd, loadConfig())
	res, err := c.Retain(cmd.Context(), m.BankID(), items)
	if err != nil {
		exitErr("store", err)
	}

	b, _ := json.Marshal(res)
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}

// piped reports whether r carries input to read. A terminal does not; any
// reader that is not a file, such as one set with SetIn, does.
func piped(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return true
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice == 0
}
