package cli

import (
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/montelibero/julesbot/internal/config"
	"github.com/montelibero/julesbot/internal/jules"
)

// CLI is the top-level command structure
type CLI struct {
	Format  string `help:"Output format for one-shot commands (text, ndjson)" enum:"text,ndjson" default:"${config_format}"`
	Quiet   bool   `short:"q" help:"Suppress log output"`
	Verbose bool   `short:"v" help:"Enable debug logging"`

	Run     RunCmd     `cmd:"" default:"1" help:"Run the Telegram bot and session monitor"`
	List    ListCmd    `cmd:"" help:"List recent Jules sessions"`
	Create  CreateCmd  `cmd:"" help:"Create a new Jules session"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// Globals holds shared state passed to all commands
type Globals struct {
	Format  string
	Quiet   bool
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
	Config  *config.Config
	Log     *zap.SugaredLogger
}

// NewGlobalsWithConfig creates Globals from parsed flags and loaded config
func NewGlobalsWithConfig(c *CLI, cfg *config.Config) *Globals {
	return &Globals{
		Format:  c.Format,
		Quiet:   c.Quiet,
		Verbose: c.Verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Config:  cfg,
		Log:     newLogger(cfg.LogLevel, c.Verbose, c.Quiet),
	}
}

// newJulesClient builds the API client shared by all commands.
func newJulesClient(globals *Globals) *jules.Client {
	cfg := globals.Config
	opts := []jules.Option{
		jules.WithBaseURL(cfg.API.BaseURL),
		jules.WithLogger(globals.Log),
	}
	if cfg.API.DebugLog != "" {
		opts = append(opts, jules.WithDebugLog(jules.NewDebugLog(cfg.API.DebugLog)))
	}
	return jules.NewClient(cfg.JulesToken, opts...)
}
