package tools

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/agent-recall/internal/bank"
	"github.com/rcliao/agent-recall/internal/client"
	"github.com/rcliao/agent-recall/internal/model"
	"github.com/rcliao/agent-recall/internal/testing/memtest"
)

const (
	testBank = "tools-bank"
	bankPath = "/v1/default/banks/" + testBank
)

func newToolset(t *testing.T) (*Toolset, *memtest.Server) {
	t.Helper()
	srv := memtest.New(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := client.New(srv.URL, "default", client.WithLogger(logger))
	m := bank.NewManager(c, testBank, "test mission", logger)
	return New(c, m, 5, logger), srv
}

func seed(srv *memtest.Server) {
	srv.Seed(testBank,
		model.Memory{ID: "m1", Text: "User prefers oatmeal on weekdays", Kind: model.KindWorld},
		model.Memory{ID: "m2", Text: "User drinks green tea every morning", Kind: model.KindWorld},
		model.Memory{ID: "m3", Text: "User drinks coffee at work", Kind: model.KindExperience},
	)
}

func call(t *testing.T, ts *Toolset, name string, input string) Result {
	t.Helper()
	for _, def := range ts.Definitions() {
		if def.Name == name {
			return def.Execute(context.Background(), json.RawMessage(input))
		}
	}
	t.Fatalf("tool %s not defined", name)
	return Result{}
}

func TestDefinitions(t *testing.T) {
	ts, _ := newToolset(t)
	defs := ts.Definitions()
	require.Len(t, defs, 5)

	names := map[string]Definition{}
	for _, d := range defs {
		names[d.Name] = d
		assert.NotEmpty(t, d.Description)
		require.NotNil(t, d.InputSchema)
		assert.Equal(t, "object", d.InputSchema.Type)
	}
	for _, n := range []string{SearchName, StoreName, GetName, ListName, ForgetName} {
		assert.Contains(t, names, n)
	}

	search := names[SearchName].InputSchema
	assert.Contains(t, search.Required, "query")
	assert.NotContains(t, search.Required, "limit")
	_, ok := search.Properties.Get("limit")
	assert.True(t, ok)

	assert.Empty(t, names[ForgetName].InputSchema.Required)
}

func TestSearch(t *testing.T) {
	ts, srv := newToolset(t)
	seed(srv)

	res := call(t, ts, SearchName, `{"query":"drinks"}`)
	assert.False(t, res.Failed())
	assert.Equal(t, 2, res.Details["count"])
	assert.Contains(t, res.Text, "Found 2 memories")
	assert.Contains(t, res.Text, "1. [world] User drinks green tea every morning (id: m2)")
	assert.Contains(t, res.Text, "2. [experience] User drinks coffee at work (id: m3)")

	res = call(t, ts, SearchName, `{"query":"pizza toppings"}`)
	assert.Equal(t, "No relevant memories found.", res.Text)
	assert.Equal(t, 0, res.Details["count"])
}

func TestSearch_EnsuresBankFirst(t *testing.T) {
	ts, srv := newToolset(t)
	call(t, ts, SearchName, `{"query":"anything at all"}`)
	call(t, ts, SearchName, `{"query":"anything else"}`)

	reqs := srv.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, http.MethodPut, reqs[0].Method)
	assert.Equal(t, bankPath, reqs[0].Path)
	assert.Equal(t, bankPath+"/memories/recall", reqs[1].Path)
	assert.Equal(t, bankPath+"/memories/recall", reqs[2].Path)
}

func TestSearch_LimitDefaultsToRecallLimit(t *testing.T) {
	ts, srv := newToolset(t)
	srv.Recall = memtest.All
	for i := 0; i < 8; i++ {
		srv.Seed(testBank, model.Memory{Text: "filler memory"})
	}

	res := call(t, ts, SearchName, `{"query":"filler"}`)
	assert.Equal(t, 5, res.Details["count"])

	res = call(t, ts, SearchName, `{"query":"filler","limit":2}`)
	assert.Equal(t, 2, res.Details["count"])
}

func TestSearch_ServiceFailure(t *testing.T) {
	ts, srv := newToolset(t)
	srv.Fail(http.MethodPost, bankPath+"/memories/recall", http.StatusInternalServerError)

	res := call(t, ts, SearchName, `{"query":"anything"}`)
	assert.True(t, res.Failed())
	assert.Contains(t, res.Text, "Memory search failed")
	assert.Contains(t, res.Details["error"], "status 500")
}

func TestSearch_EnsureFailureDoesNotBlock(t *testing.T) {
	ts, srv := newToolset(t)
	srv.Fail(http.MethodPut, bankPath, http.StatusInternalServerError)
	seed(srv)

	res := call(t, ts, SearchName, `{"query":"oatmeal"}`)
	assert.False(t, res.Failed())
	assert.Equal(t, 1, res.Details["count"])
	assert.False(t, ts.bank.Ready())
}

func TestInvalidInput(t *testing.T) {
	ts, srv := newToolset(t)

	res := call(t, ts, SearchName, `{"query": 12}`)
	assert.True(t, res.Failed())
	assert.Contains(t, res.Text, "Invalid input:")

	res = call(t, ts, SearchName, ``)
	assert.True(t, res.Failed())
	assert.Equal(t, "Provide a query to search for.", res.Text)

	assert.Empty(t, srv.Requests())
}

func TestStore(t *testing.T) {
	ts, srv := newToolset(t)

	res := call(t, ts, StoreName, `{"text":"  The user's cat is called Miso  "}`)
	assert.False(t, res.Failed())
	assert.Equal(t, "stored", res.Details["action"])
	assert.Equal(t, 1, res.Details["items_count"])

	mems := srv.Memories(testBank)
	require.Len(t, mems, 1)
	assert.Equal(t, "The user's cat is called Miso", mems[0].Text)
	assert.Equal(t, "stored by agent", mems[0].Context)
}

func TestStore_ZeroAcceptedIsNotAnError(t *testing.T) {
	ts, srv := newToolset(t)
	srv.RejectRetain = true

	res := call(t, ts, StoreName, `{"text":"hi there everyone","context":"chat"}`)
	assert.False(t, res.Failed())
	assert.Equal(t, 0, res.Details["items_count"])
	assert.Contains(t, res.Text, "no new facts")
}

func TestGet(t *testing.T) {
	ts, srv := newToolset(t)
	seed(srv)

	res := call(t, ts, GetName, `{"id":"m1"}`)
	assert.False(t, res.Failed())
	assert.Equal(t, "[world] User prefers oatmeal on weekdays (id: m1)", res.Text)
	m, ok := res.Details["memory"].(*model.Memory)
	require.True(t, ok)
	assert.Equal(t, "m1", m.ID)

	res = call(t, ts, GetName, `{"id":"missing"}`)
	assert.True(t, res.Failed())
	assert.Contains(t, res.Details["error"], "status 404")

	res = call(t, ts, GetName, `{}`)
	assert.True(t, res.Failed())
}

func TestList(t *testing.T) {
	ts, srv := newToolset(t)

	res := call(t, ts, ListName, `{}`)
	assert.Equal(t, "No memories stored yet.", res.Text)
	assert.Equal(t, 0, res.Details["count"])

	seed(srv)
	res = call(t, ts, ListName, `{"limit":2}`)
	assert.Equal(t, 2, res.Details["count"])
	assert.Equal(t, 3, res.Details["total"])
	assert.Contains(t, res.Text, "Showing 2 of 3 memories")
}

func TestForget_ByID(t *testing.T) {
	ts, srv := newToolset(t)
	seed(srv)

	res := call(t, ts, ForgetName, `{"id":"m3"}`)
	assert.False(t, res.Failed())
	assert.Equal(t, "deleted", res.Details["action"])
	assert.Equal(t, "m3", res.Details["id"])
	assert.Len(t, srv.Memories(testBank), 2)
	assert.Zero(t, srv.Count(http.MethodPost, bankPath+"/memories/recall"))
}

func TestForget_NoContentDeleteReportsSuccess(t *testing.T) {
	ts, srv := newToolset(t)
	srv.DeleteNoContent = true
	seed(srv)

	res := call(t, ts, ForgetName, `{"id":"m1"}`)
	assert.False(t, res.Failed())
	assert.Equal(t, "deleted", res.Details["action"])
	assert.Equal(t, "Forgot memory m1.", res.Text)

	res = call(t, ts, ForgetName, `{"query":"oatmeal"}`)
	assert.Equal(t, "none_found", res.Details["action"])

	res = call(t, ts, ForgetName, `{"query":"coffee"}`)
	assert.Equal(t, "deleted", res.Details["action"])
	assert.Equal(t, "m3", res.Details["id"])
	assert.Len(t, srv.Memories(testBank), 1)
}

func TestForget_ByQuery(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantAction string
		wantLeft   int
	}{
		{"single match deletes", "oatmeal", "deleted", 2},
		{"no match", "pizza", "none_found", 3},
		{"ambiguous lists candidates", "drinks", "candidates", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, srv := newToolset(t)
			seed(srv)

			input, _ := json.Marshal(ForgetInput{Query: tt.query})
			res := call(t, ts, ForgetName, string(input))

			assert.False(t, res.Failed())
			assert.Equal(t, tt.wantAction, res.Details["action"])
			assert.Len(t, srv.Memories(testBank), tt.wantLeft)
			if tt.wantAction != "deleted" {
				assert.Zero(t, srv.Count(http.MethodDelete, bankPath+"/memories/m1"))
				assert.Zero(t, srv.Count(http.MethodDelete, bankPath+"/memories/m2"))
				assert.Zero(t, srv.Count(http.MethodDelete, bankPath+"/memories/m3"))
			}
		})
	}
}

func TestForget_CandidatesDetails(t *testing.T) {
	ts, srv := newToolset(t)
	seed(srv)

	res := call(t, ts, ForgetName, `{"query":"drinks"}`)
	candidates, ok := res.Details["candidates"].([]Candidate)
	require.True(t, ok)
	require.Len(t, candidates, 2)
	assert.Equal(t, "m2", candidates[0].ID)
	assert.Equal(t, "m3", candidates[1].ID)
	assert.Contains(t, res.Text, "- m2: User drinks green tea every morning")
}

func TestForget_RecallsAtMostFiveCandidates(t *testing.T) {
	ts, srv := newToolset(t)
	srv.Recall = memtest.All
	for i := 0; i < 9; i++ {
		srv.Seed(testBank, model.Memory{Text: "duplicate fact"})
	}

	res := call(t, ts, ForgetName, `{"query":"duplicate"}`)
	candidates := res.Details["candidates"].([]Candidate)
	assert.Len(t, candidates, 5)
}

func TestForget_RequiresIDOrQuery(t *testing.T) {
	ts, srv := newToolset(t)
	res := call(t, ts, ForgetName, `{}`)
	assert.True(t, res.Failed())
	assert.Equal(t, "Provide either id or query.", res.Text)
	assert.Empty(t, srv.Requests())
}
