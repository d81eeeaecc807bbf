package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/montelibero/julesbot/internal/config"
	"github.com/montelibero/julesbot/internal/jules"
)

// testGlobals creates a Globals struct with captured stdout/stderr
func testGlobals(format string) (*Globals, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	return &Globals{
		Format: format,
		Stdout: stdout,
		Stderr: stderr,
		Config: config.Default(),
		Log:    zap.NewNop().Sugar(),
	}, stdout, stderr
}

func sessionServer(t *testing.T, sessions []jules.Session) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/sessions":
			json.NewEncoder(w).Encode(jules.ListSessionsResponse{Sessions: sessions})
		case r.Method == http.MethodPost && r.URL.Path == "/sessions":
			json.NewEncoder(w).Encode(jules.Session{ID: "sessions/900", State: "QUEUED"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// --- List Command Tests ---

func TestListCmd_Run(t *testing.T) {
	sessions := []jules.Session{
		{ID: "sessions/111", Title: "Fix CI", State: "IN_PROGRESS"},
		{ID: "222", Title: "Docs", State: "COMPLETED"},
	}

	t.Run("outputs table in text format", func(t *testing.T) {
		globals, stdout, _ := testGlobals("text")
		globals.Config.JulesToken = "k"
		globals.Config.API.BaseURL = sessionServer(t, sessions).URL

		err := (&ListCmd{}).Run(globals)
		require.NoError(t, err)

		out := stdout.String()
		assert.Contains(t, out, "111")
		assert.Contains(t, out, "Fix CI")
		assert.Contains(t, out, "COMPLETED")
	})

	t.Run("outputs one object per session in NDJSON format", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")
		globals.Config.JulesToken = "k"
		globals.Config.API.BaseURL = sessionServer(t, sessions).URL

		err := (&ListCmd{}).Run(globals)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
		require.Len(t, lines, 2)

		var row map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &row))
		assert.Equal(t, "session", row["type"])
		assert.Equal(t, "111", row["id"])
		assert.Equal(t, "IN_PROGRESS", row["state"])
	})

	t.Run("applies where filters", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")
		globals.Config.JulesToken = "k"
		globals.Config.API.BaseURL = sessionServer(t, sessions).URL

		err := (&ListCmd{Where: []string{"state=COMPLETED"}}).Run(globals)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
		require.Len(t, lines, 1)
		assert.Contains(t, lines[0], "222")
	})

	t.Run("rejects malformed where clause", func(t *testing.T) {
		globals, _, stderr := testGlobals("text")
		globals.Config.JulesToken = "k"

		err := (&ListCmd{Where: []string{"nonsense"}}).Run(globals)
		require.Error(t, err)
		assert.Contains(t, stderr.String(), "INVALID_WHERE")
	})

	t.Run("reports empty result in text format", func(t *testing.T) {
		globals, stdout, _ := testGlobals("text")
		globals.Config.JulesToken = "k"
		globals.Config.API.BaseURL = sessionServer(t, nil).URL

		err := (&ListCmd{}).Run(globals)
		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "No sessions found.")
	})

	t.Run("fails without a token", func(t *testing.T) {
		globals, _, stderr := testGlobals("text")

		err := (&ListCmd{}).Run(globals)
		require.Error(t, err)
		assert.Contains(t, stderr.String(), "MISSING_JULES_TOKEN")
	})

	t.Run("emits machine-readable errors in NDJSON format", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")

		err := (&ListCmd{}).Run(globals)
		require.Error(t, err)

		var out map[string]any
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
		assert.Equal(t, "error", out["type"])
		assert.Equal(t, "MISSING_JULES_TOKEN", out["code"])
	})
}

// --- Create Command Tests ---

func TestCreateCmd_Run(t *testing.T) {
	t.Run("creates a session", func(t *testing.T) {
		globals, stdout, _ := testGlobals("text")
		globals.Config.JulesToken = "k"
		globals.Config.API.BaseURL = sessionServer(t, nil).URL

		cmd := &CreateCmd{Repo: "montelibero/docker-helper", Prompt: []string{"update", "the", "readme"}, Branch: "main"}
		err := cmd.Run(globals)
		require.NoError(t, err)

		out := stdout.String()
		assert.Contains(t, out, "Session created")
		assert.Contains(t, out, "900")
	})

	t.Run("rejects malformed repo", func(t *testing.T) {
		globals, _, stderr := testGlobals("text")
		globals.Config.JulesToken = "k"

		cmd := &CreateCmd{Repo: "badrepo", Prompt: []string{"x"}}
		err := cmd.Run(globals)
		require.Error(t, err)
		assert.Contains(t, stderr.String(), "INVALID_REPO")
	})

	t.Run("rejects empty prompt", func(t *testing.T) {
		globals, _, stderr := testGlobals("text")
		globals.Config.JulesToken = "k"

		cmd := &CreateCmd{Repo: "a/b", Prompt: []string{" "}}
		err := cmd.Run(globals)
		require.Error(t, err)
		assert.Contains(t, stderr.String(), "MISSING_PROMPT")
	})
}

// --- Version Command Tests ---

func TestVersionCmd_Run(t *testing.T) {
	t.Run("text format", func(t *testing.T) {
		globals, stdout, _ := testGlobals("text")
		err := (&VersionCmd{}).Run(globals)
		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "julesbot")
	})

	t.Run("ndjson format", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")
		err := (&VersionCmd{}).Run(globals)
		require.NoError(t, err)

		var out map[string]any
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
		assert.Equal(t, "version", out["type"])
	})
}
