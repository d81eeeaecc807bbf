package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/montelibero/julesbot/internal/jules"
)

// CreateCmd starts a new Jules session against a GitHub repository
type CreateCmd struct {
	Repo   string   `arg:"" help:"GitHub repository as owner/repo"`
	Prompt []string `arg:"" help:"Prompt for the new session"`
	Branch string   `help:"Starting branch" default:"main"`
}

// Run executes the create command
func (c *CreateCmd) Run(globals *Globals) error {
	cfg := globals.Config
	if cfg.JulesToken == "" {
		return outputErrorCommon(globals, "MISSING_JULES_TOKEN", "JULES_TOKEN is required")
	}

	owner, repo, ok := strings.Cut(c.Repo, "/")
	if !ok || owner == "" || repo == "" {
		return outputErrorCommon(globals, "INVALID_REPO", "repository must be owner/repo")
	}
	prompt := strings.TrimSpace(strings.Join(c.Prompt, " "))
	if prompt == "" {
		return outputErrorCommon(globals, "MISSING_PROMPT", "prompt is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	session, err := newJulesClient(globals).CreateSession(ctx,
		jules.NewCreateSessionRequest(owner, repo, prompt, c.Branch))
	if err != nil {
		return outputErrorCommon(globals, "CREATE_FAILED", err.Error())
	}

	if globals.Format == "ndjson" {
		return json.NewEncoder(globals.Stdout).Encode(sessionRow{
			Type:          "session_created",
			SchemaVersion: schemaVersion,
			ID:            session.CleanID(),
			Title:         session.Title,
			State:         session.State,
			URL:           session.Link(),
		})
	}

	fmt.Fprintln(globals.Stdout, "Session created")
	fmt.Fprintf(globals.Stdout, "  ID:    %s\n", session.CleanID())
	fmt.Fprintf(globals.Stdout, "  State: %s\n", session.State)
	fmt.Fprintf(globals.Stdout, "  URL:   %s\n", session.Link())
	return nil
}
