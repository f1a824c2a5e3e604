package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/agent-recall/internal/model"
	"github.com/rcliao/agent-recall/internal/testing/memtest"
)

const cliBank = "cli-bank"

func writeConfig(t *testing.T, baseURL, bankID string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := fmt.Sprintf("baseUrl: %s\nbankId: %s\nrecallLimit: 3\n", baseURL, bankID)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// run executes the CLI with args against the config file and returns stdout.
func run(t *testing.T, cfgPath, stdin string, args ...string) string {
	t.Helper()
	resetFlags(RootCmd)

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetIn(strings.NewReader(stdin))
	RootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	require.NoError(t, RootCmd.ExecuteContext(context.Background()))
	return out.String()
}

func seedCLI(srv *memtest.Server) {
	mentioned := time.Now().Add(-2 * time.Hour)
	srv.Seed(cliBank,
		model.Memory{ID: "m1", Text: "User prefers oatmeal on weekdays", Kind: model.KindWorld, Entities: []string{"oatmeal"}},
		model.Memory{ID: "m2", Text: "User drinks green tea every morning", Kind: model.KindWorld, Entities: []string{"green tea"}, MentionedAt: &mentioned},
		model.Memory{ID: "m3", Text: "User drinks coffee at work", Kind: model.KindExperience},
	)
}

func TestStatus(t *testing.T) {
	srv := memtest.New(t)
	seedCLI(srv)
	cfg := writeConfig(t, srv.URL, cliBank)

	var report statusReport
	require.NoError(t, json.Unmarshal([]byte(run(t, cfg, "", "status")), &report))
	assert.True(t, report.Healthy)
	assert.Equal(t, srv.URL, report.Config.BaseURL)
	assert.Equal(t, cliBank, report.Config.BankID)
	assert.Equal(t, 3, report.Config.RecallLimit)
	require.NotNil(t, report.Memories)
	assert.Equal(t, 3, *report.Memories)
	require.NotNil(t, report.Entities)
	assert.Equal(t, 2, *report.Entities)

	// status is read-only.
	assert.Zero(t, srv.Count("PUT", "/v1/default/banks/"+cliBank))

	text := run(t, cfg, "", "status", "--format", "text")
	assert.Contains(t, text, "(healthy)")
	assert.Contains(t, text, "memories:     3")
	assert.Contains(t, text, "auto-recall:  on (limit 3)")

	yml := run(t, cfg, "", "status", "-f", "yaml")
	assert.Contains(t, yml, "healthy: true")
	assert.Contains(t, yml, "bankId: "+cliBank)
}

func TestStatus_Unreachable(t *testing.T) {
	srv := memtest.New(t)
	cfg := writeConfig(t, srv.URL, cliBank)
	srv.Close()

	var report statusReport
	require.NoError(t, json.Unmarshal([]byte(run(t, cfg, "", "status")), &report))
	assert.False(t, report.Healthy)
	assert.Nil(t, report.Memories)
	assert.Nil(t, report.Entities)

	assert.Contains(t, run(t, cfg, "", "status", "--format", "text"), "memories:     unknown")
}

func TestSearch(t *testing.T) {
	srv := memtest.New(t)
	seedCLI(srv)
	cfg := writeConfig(t, srv.URL, cliBank)

	var got []model.Memory
	require.NoError(t, json.Unmarshal([]byte(run(t, cfg, "", "search", "who", "drinks")), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "m2", got[0].ID)
	assert.Equal(t, "m3", got[1].ID)

	assert.Equal(t, "[]\n", run(t, cfg, "", "search", "pizza"))

	text := run(t, cfg, "", "search", "drinks", "--limit", "1", "--format", "text")
	assert.Equal(t, "1. [world] User drinks green tea every morning (id: m2), 2 hours ago\n", text)
}

func TestSearch_DefaultLimitFromConfig(t *testing.T) {
	srv := memtest.New(t)
	srv.Recall = memtest.All
	for i := 0; i < 6; i++ {
		srv.Seed(cliBank, model.Memory{Text: "filler"})
	}
	cfg := writeConfig(t, srv.URL, cliBank)

	var got []model.Memory
	require.NoError(t, json.Unmarshal([]byte(run(t, cfg, "", "search", "anything")), &got))
	assert.Len(t, got, 3)
}

func TestReflect(t *testing.T) {
	srv := memtest.New(t)
	seedCLI(srv)
	cfg := writeConfig(t, srv.URL, cliBank)

	out := run(t, cfg, "", "reflect", "what", "about", "oatmeal?")
	assert.Equal(t, "Based on what I remember: User prefers oatmeal on weekdays\n", out)
}

func TestContext(t *testing.T) {
	srv := memtest.New(t)
	seedCLI(srv)
	cfg := writeConfig(t, srv.URL, cliBank)

	out := run(t, cfg, "", "context", "what", "does", "the", "user", "eat?")
	assert.True(t, strings.HasPrefix(out, "<relevant-memories>\n"))
	assert.Contains(t, out, "1. [world] User prefers oatmeal on weekdays\n")
	assert.Contains(t, out, "3. [experience] User drinks coffee at work\n")

	assert.Empty(t, run(t, cfg, "", "context", "pizza"))
}

func TestStoreListGetForget(t *testing.T) {
	srv := memtest.New(t)
	cfg := writeConfig(t, srv.URL, cliBank)

	var retained model.RetainResult
	require.NoError(t, json.Unmarshal([]byte(run(t, cfg, "", "store", "my", "cat", "is", "called", "Miso")), &retained))
	assert.Equal(t, 1, retained.ItemsCount)
	assert.True(t, srv.HasBank(cliBank))

	mems := srv.Memories(cliBank)
	require.Len(t, mems, 1)
	assert.Equal(t, "my cat is called Miso", mems[0].Text)
	assert.Equal(t, "stored from cli", mems[0].Context)
	id := mems[0].ID

	assert.Equal(t, id+"\n", run(t, cfg, "", "list", "--ids-only"))

	var list model.ListResult
	require.NoError(t, json.Unmarshal([]byte(run(t, cfg, "", "list")), &list))
	assert.Len(t, list.Items, 1)

	getText := run(t, cfg, "", "get", id, "--format", "text")
	assert.Contains(t, getText, "text:     my cat is called Miso")
	assert.Contains(t, getText, "context:  stored from cli")

	assert.Equal(t, fmt.Sprintf(`{"ok":true,"id":%q}`+"\n", id), run(t, cfg, "", "forget", id))
	assert.Empty(t, srv.Memories(cliBank))

	assert.Equal(t, "[]\n", run(t, cfg, "", "export"))
}

func TestStore_FromStdin(t *testing.T) {
	srv := memtest.New(t)
	cfg := writeConfig(t, srv.URL, cliBank)

	run(t, cfg, "  my sister lives in Porto\n", "store", "--context", "piped")

	mems := srv.Memories(cliBank)
	require.Len(t, mems, 1)
	assert.Equal(t, "my sister lives in Porto", mems[0].Text)
	assert.Equal(t, "piped", mems[0].Context)
}

func TestPiped(t *testing.T) {
	assert.True(t, piped(strings.NewReader("text")))

	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer f.Close()
	assert.True(t, piped(f))

	require.NoError(t, f.Close())
	assert.False(t, piped(f))
}

func TestForget_NoContent(t *testing.T) {
	srv := memtest.New(t)
	srv.DeleteNoContent = true
	seedCLI(srv)
	cfg := writeConfig(t, srv.URL, cliBank)

	assert.Equal(t, `{"ok":true,"id":"m1"}`+"\n", run(t, cfg, "", "forget", "m1"))
	assert.Len(t, srv.Memories(cliBank), 2)
}

func TestEntities(t *testing.T) {
	srv := memtest.New(t)
	seedCLI(srv)
	cfg := writeConfig(t, srv.URL, cliBank)

	assert.Equal(t, "green tea (1 mentions)\noatmeal (1 mentions)\n", run(t, cfg, "", "entities", "--format", "text"))
}

func TestExportImport(t *testing.T) {
	srv := memtest.New(t)
	seedCLI(srv)
	exported := run(t, writeConfig(t, srv.URL, cliBank), "", "export")

	var mems []model.Memory
	require.NoError(t, json.Unmarshal([]byte(exported), &mems))
	require.Len(t, mems, 3)

	target := writeConfig(t, srv.URL, "restored-bank")
	out := run(t, target, exported, "import")
	assert.Equal(t, `{"ok":true,"submitted":3,"imported":3}`+"\n", out)

	restored := srv.Memories("restored-bank")
	require.Len(t, restored, 3)
	assert.Equal(t, "User drinks green tea every morning", restored[1].Text)
}

func TestImportItems(t *testing.T) {
	mentioned := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("X", -5*3600))
	items := importItems([]model.Memory{
		{ID: "a", Text: "  keeps trimmed text  ", Context: "chat", DocumentID: "doc-1", MentionedAt: &mentioned},
		{ID: "b", Text: "   "},
		{ID: "c", Text: "no timestamp"},
	})

	require.Len(t, items, 2)
	assert.Equal(t, model.CaptureItem{
		Content:    "keeps trimmed text",
		Context:    "chat",
		DocumentID: "doc-1",
		Timestamp:  "2026-03-01T17:00:00Z",
	}, items[0])
	assert.Equal(t, model.CaptureItem{Content: "no timestamp"}, items[1])
}

func TestStore_SplitsLongText(t *testing.T) {
	srv := memtest.New(t)
	cfg := writeConfig(t, srv.URL, cliBank)

	run(t, cfg, "", "store", "--max-chars", "30", "first paragraph is here\n\nsecond paragraph is here")

	mems := srv.Memories(cliBank)
	require.Len(t, mems, 2)
	assert.Equal(t, "first paragraph is here", mems[0].Text)
	assert.Equal(t, "second paragraph is here", mems[1].Text)
	assert.Len(t, mems[0].DocumentID, 26)
	assert.Equal(t, mems[0].DocumentID, mems[1].DocumentID)
}
