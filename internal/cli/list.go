package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/montelibero/julesbot/internal/filter"
	"github.com/montelibero/julesbot/internal/jules"
)

// ListCmd fetches recent sessions and prints them
type ListCmd struct {
	PageSize int      `short:"n" help:"Number of sessions to fetch (default from config)"`
	Where    []string `short:"w" help:"Filter sessions, e.g. state=COMPLETED or title~fix (repeatable, AND logic)"`
}

// sessionRow is the NDJSON output for one session
type sessionRow struct {
	Type          string `json:"type"`
	SchemaVersion int    `json:"schemaVersion"`
	ID            string `json:"id"`
	Title         string `json:"title,omitempty"`
	State         string `json:"state"`
	URL           string `json:"url"`
}

const schemaVersion = 1

// Run executes the list command
func (c *ListCmd) Run(globals *Globals) error {
	cfg := globals.Config
	if cfg.JulesToken == "" {
		return outputErrorCommon(globals, "MISSING_JULES_TOKEN", "JULES_TOKEN is required")
	}

	where, err := filter.NewWhereFilter(c.Where)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_WHERE", err.Error())
	}

	pageSize := c.PageSize
	if pageSize <= 0 {
		pageSize = cfg.API.PageSize
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sessions, err := newJulesClient(globals).ListSessions(ctx, pageSize)
	if err != nil {
		return outputErrorCommon(globals, "LIST_FAILED", err.Error())
	}
	sessions = where.Apply(sessions)

	if globals.Format == "ndjson" {
		return writeSessionsNDJSON(globals.Stdout, sessions)
	}
	return writeSessionsTable(globals.Stdout, sessions)
}

func writeSessionsNDJSON(w io.Writer, sessions []jules.Session) error {
	encoder := json.NewEncoder(w)
	for _, s := range sessions {
		row := sessionRow{
			Type:          "session",
			SchemaVersion: schemaVersion,
			ID:            s.CleanID(),
			Title:         s.Title,
			State:         s.State,
			URL:           s.Link(),
		}
		if err := encoder.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

func writeSessionsTable(w io.Writer, sessions []jules.Session) error {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("ID", "Title", "State")
	for _, s := range sessions {
		if err := table.Append(s.CleanID(), s.Title, s.State); err != nil {
			return err
		}
	}
	return table.Render()
}
