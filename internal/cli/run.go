package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/benbjohnson/clock"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/montelibero/julesbot/internal/monitor"
	"github.com/montelibero/julesbot/internal/telegram"
)

// RunCmd starts the Telegram bot and, optionally, an unbounded
// monitoring loop
type RunCmd struct {
	Autostart bool `help:"Start monitoring immediately and keep it running until shutdown"`
}

// Run executes the run command
func (c *RunCmd) Run(globals *Globals) error {
	cfg := globals.Config
	if err := cfg.Validate(); err != nil {
		return outputErrorCommon(globals, "INVALID_CONFIG", err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown; an in-flight monitor tick
	// finishes before the process exits.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		globals.Log.Infow("shutdown signal received")
		cancel()
	}()

	client := newJulesClient(globals)

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return outputErrorCommon(globals, "TELEGRAM_AUTH_FAILED", err.Error())
	}

	notifier := telegram.NewNotifier(api, cfg.AdminChatID, globals.Log)
	mon := monitor.New(monitor.Config{
		Source:   client,
		Notifier: notifier,
		Render: func(changes []monitor.Change) string {
			return telegram.FormatChanges(changes, cfg.Monitor.CriticalStates)
		},
		Clock:    clock.New(),
		Logger:   globals.Log,
		Interval: cfg.Monitor.Interval,
		PageSize: cfg.API.PageSize,
	})

	bot := telegram.New(telegram.Config{
		API:             api,
		Jules:           client,
		Monitor:         mon,
		AdminChatID:     cfg.AdminChatID,
		PageSize:        cfg.API.PageSize,
		MonitorInterval: cfg.Monitor.Interval,
		MonitorDuration: cfg.Monitor.Duration,
		Logger:          globals.Log,
	})

	var wg sync.WaitGroup
	if c.Autostart || cfg.Monitor.Autostart {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := mon.Run(ctx, 0); err != nil && !errors.Is(err, monitor.ErrAlreadyRunning) {
				globals.Log.Errorw("monitoring loop failed", "error", err)
			}
		}()
	}

	err = bot.Run(ctx)
	wg.Wait()
	return err
}
