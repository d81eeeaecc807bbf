package telegram

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/montelibero/julesbot/internal/jules"
	"github.com/montelibero/julesbot/internal/monitor"
)

// SessionAPI is the slice of the Jules client the bot needs.
type SessionAPI interface {
	ListSessions(ctx context.Context, pageSize int) ([]jules.Session, error)
	GetSession(ctx context.Context, id string) (*jules.Session, error)
	ListActivities(ctx context.Context, id string, pageSize int) ([]jules.Activity, error)
	CreateSession(ctx context.Context, req jules.CreateSessionRequest) (*jules.Session, error)
}

// API is the slice of the Telegram API the bot needs.
// Satisfied by *tgbotapi.BotAPI.
type API interface {
	Sender
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

var (
	infoPattern       = regexp.MustCompile(`^/info_(\d+)$`)
	activitiesPattern = regexp.MustCompile(`^/list_activities_(\d+)$`)
)

const helpText = `Hello! I am the Jules Monitoring Bot.
Commands:
/list - List recent sessions
/monitor - Start monitoring sessions
/info <id> - Show session details
/create <owner/repo> <prompt> - Create a new session`

const defaultCallTimeout = 45 * time.Second

// Config wires a Bot's collaborators.
type Config struct {
	API             API
	Jules           SessionAPI
	Monitor         *monitor.Monitor
	AdminChatID     int64
	PageSize        int
	MonitorInterval time.Duration
	MonitorDuration time.Duration
	CallTimeout     time.Duration
	Logger          *zap.SugaredLogger
}

// Bot serves the Telegram command surface for the administrator chat and
// starts monitoring windows on demand.
type Bot struct {
	api             API
	jules           SessionAPI
	monitor         *monitor.Monitor
	adminChatID     int64
	pageSize        int
	monitorInterval time.Duration
	monitorDuration time.Duration
	callTimeout     time.Duration
	log             *zap.SugaredLogger
	wg              sync.WaitGroup
}

// New creates a Bot from cfg.
func New(cfg Config) *Bot {
	b := &Bot{
		api:             cfg.API,
		jules:           cfg.Jules,
		monitor:         cfg.Monitor,
		adminChatID:     cfg.AdminChatID,
		pageSize:        cfg.PageSize,
		monitorInterval: cfg.MonitorInterval,
		monitorDuration: cfg.MonitorDuration,
		callTimeout:     cfg.CallTimeout,
		log:             cfg.Logger,
	}
	if b.pageSize <= 0 {
		b.pageSize = monitor.DefaultPageSize
	}
	if b.monitorInterval <= 0 {
		b.monitorInterval = monitor.DefaultInterval
	}
	if b.callTimeout <= 0 {
		b.callTimeout = defaultCallTimeout
	}
	if b.log == nil {
		b.log = zap.NewNop().Sugar()
	}
	return b
}

// Run consumes Telegram updates until ctx is cancelled. A monitoring
// window started via /monitor shares ctx, so shutdown stops it too
// (after its in-flight tick finishes).
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	b.log.Infow("bot started", "admin_chat_id", b.adminChatID)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			b.log.Infow("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handle(ctx, update.Message)
		}
	}
}

func (b *Bot) handle(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	if msg.IsCommand() && msg.Command() == "start" {
		b.reply(msg.Chat.ID, helpText)
		return
	}
	if msg.Chat.ID != b.adminChatID {
		b.log.Warnw("rejected message from non-admin chat", "chat_id", msg.Chat.ID)
		b.reply(msg.Chat.ID, "Unauthorized.")
		return
	}

	if m := infoPattern.FindStringSubmatch(msg.Text); m != nil {
		b.handleInfo(ctx, msg.Chat.ID, m[1])
		return
	}
	if m := activitiesPattern.FindStringSubmatch(msg.Text); m != nil {
		b.handleActivities(ctx, msg.Chat.ID, m[1])
		return
	}
	if !msg.IsCommand() {
		return
	}

	switch msg.Command() {
	case "list":
		b.handleList(ctx, msg.Chat.ID)
	case "info":
		b.handleInfo(ctx, msg.Chat.ID, strings.TrimSpace(msg.CommandArguments()))
	case "create":
		b.handleCreate(ctx, msg.Chat.ID, msg.CommandArguments())
	case "monitor":
		b.handleMonitor(ctx, msg.Chat.ID)
	}
}

func (b *Bot) handleList(ctx context.Context, chatID int64) {
	b.reply(chatID, "Fetching sessions...")

	cctx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()
	sessions, err := b.jules.ListSessions(cctx, b.pageSize)
	if err != nil {
		b.log.Errorw("list sessions failed", "error", err)
		b.reply(chatID, "Failed to fetch sessions. Check logs.")
		return
	}
	b.reply(chatID, FormatSessionList(sessions))
}

func (b *Bot) handleInfo(ctx context.Context, chatID int64, id string) {
	if id == "" {
		b.reply(chatID, "Usage: /info <session_id>")
		return
	}
	b.reply(chatID, "Fetching info for session "+escape(jules.CleanID(id))+"...")

	cctx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()
	session, err := b.jules.GetSession(cctx, id)
	if err != nil {
		b.log.Errorw("get session failed", "session", id, "error", err)
		b.reply(chatID, "❌ Session "+escape(jules.CleanID(id))+" not found or error occurred.")
		return
	}
	b.reply(chatID, FormatSessionInfo(session))
}

func (b *Bot) handleActivities(ctx context.Context, chatID int64, id string) {
	b.reply(chatID, "Fetching activities for session "+escape(id)+"...")

	cctx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()
	activities, err := b.jules.ListActivities(cctx, id, b.pageSize)
	if err != nil {
		b.log.Errorw("list activities failed", "session", id, "error", err)
		b.reply(chatID, "Failed to fetch activities. Check logs.")
		return
	}
	b.reply(chatID, FormatActivities(id, activities))
}

func (b *Bot) handleCreate(ctx context.Context, chatID int64, args string) {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if len(parts) < 2 || parts[0] == "" {
		b.reply(chatID, "Usage: /create <owner/repo> <prompt>")
		return
	}
	owner, repo, ok := strings.Cut(parts[0], "/")
	if !ok || owner == "" || repo == "" {
		b.reply(chatID, "Invalid repo format. Use owner/repo (e.g., Montelibero/docker-helper)")
		return
	}

	b.reply(chatID, "Creating session...")

	cctx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()
	session, err := b.jules.CreateSession(cctx, jules.NewCreateSessionRequest(owner, repo, parts[1], ""))
	if err != nil {
		b.log.Errorw("create session failed", "repo", parts[0], "error", err)
		b.reply(chatID, "Failed to create session. Check logs.")
		return
	}
	b.reply(chatID, FormatSessionCreated(session))
}

func (b *Bot) handleMonitor(ctx context.Context, chatID int64) {
	if b.monitor.Running() {
		b.reply(chatID, "Monitoring is already active.")
		return
	}

	b.reply(chatID, monitorStartedText(b.monitorInterval, b.monitorDuration))

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := b.monitor.Run(ctx, b.monitorDuration); err != nil && !errors.Is(err, monitor.ErrAlreadyRunning) {
			b.log.Errorw("monitoring loop failed", "error", err)
		}
	}()
}

func monitorStartedText(interval, duration time.Duration) string {
	if duration > 0 {
		return "Monitoring started. I will check for changes every " + interval.String() +
			" for the next " + duration.String() + "."
	}
	return "Monitoring started. I will check for changes every " + interval.String() + "."
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Errorw("reply failed", "chat_id", chatID, "error", err)
	}
}
