package telegram

import (
	"fmt"
	"html"
	"strings"

	"github.com/samber/lo"

	"github.com/montelibero/julesbot/internal/jules"
	"github.com/montelibero/julesbot/internal/monitor"
)

// maxMessageRunes keeps replies under Telegram's 4096-character limit
// with headroom for the parse-mode markup.
const maxMessageRunes = 4000

func escape(s string) string {
	return html.EscapeString(s)
}

func code(s string) string {
	return "<code>" + escape(s) + "</code>"
}

func bold(s string) string {
	return "<b>" + escape(s) + "</b>"
}

// truncate caps s at n runes, appending an ellipsis when cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// FormatChanges renders a monitor change batch as one HTML message.
// Sessions whose state is in criticalStates get an attention marker.
func FormatChanges(changes []monitor.Change, criticalStates []string) string {
	lines := lo.Map(changes, func(ch monitor.Change, _ int) string {
		marker := "🔄"
		if ch.Kind == monitor.ChangeNew {
			marker = "🆕"
		}
		line := fmt.Sprintf("%s %s (%s)\nStatus: %s", marker, escape(ch.Session.Title), code(ch.Session.CleanID()), bold(ch.Session.State))
		if lo.Contains(criticalStates, ch.Session.State) {
			line += " ⚠️"
		}
		return line
	})
	return truncate(bold("Updates:")+"\n"+strings.Join(lines, "\n"), maxMessageRunes)
}

// FormatSessionList renders the /list reply.
func FormatSessionList(sessions []jules.Session) string {
	if len(sessions) == 0 {
		return "No sessions found."
	}
	lines := lo.Map(sessions, func(s jules.Session, _ int) string {
		title := s.Title
		if title == "" {
			title = "No Title"
		}
		return fmt.Sprintf("🆔 %s\nTitle: %s\n", code(s.CleanID()), escape(title))
	})
	return truncate(bold("Recent Sessions:")+"\n"+strings.Join(lines, "\n"), maxMessageRunes)
}

// FormatSessionInfo renders the /info reply for one session.
func FormatSessionInfo(s *jules.Session) string {
	title := s.Title
	if title == "" {
		title = "No Title"
	}
	return fmt.Sprintf(
		"🆔 ID: %s\n📌 Title: %s\n📊 State: %s\n🔗 URL: %s\n\nActivities: /list_activities_%s",
		code(s.CleanID()), escape(title), escape(s.State), escape(s.Link()), s.CleanID(),
	)
}

// FormatActivities renders the /list_activities reply.
func FormatActivities(sessionID string, activities []jules.Activity) string {
	if len(activities) == 0 {
		return "No activities found."
	}
	lines := lo.Map(activities, func(a jules.Activity, _ int) string {
		kind := a.Type
		if kind == "" {
			kind = "Unknown"
		}
		return fmt.Sprintf("• %s at %s", code(kind), escape(a.CreateTime))
	})
	header := bold("Activities for " + sessionID + ":")
	return truncate(header+"\n"+strings.Join(lines, "\n"), maxMessageRunes)
}

// FormatSessionCreated renders the /create success reply.
func FormatSessionCreated(s *jules.Session) string {
	return fmt.Sprintf(
		"✅ Session Created!\n🆔 ID: %s\n🔗 URL: %s\n📊 State: %s",
		code(s.CleanID()), escape(s.Link()), escape(s.State),
	)
}
