package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"recprefs/internal/blocklist"
	apperrors "recprefs/internal/errors"
	"recprefs/internal/limiter"
	"recprefs/internal/settings"
)

// Sender delivers outgoing messages; *tgbotapi.BotAPI implements it
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Handler processes Telegram updates
type Handler struct {
	bot       Sender
	store     *settings.Store
	blocklist *blocklist.Blocklist
	whitelist *Whitelist
	limiter   *limiter.KeyLimiter[int64]
	logger    *slog.Logger
}

// NewHandler creates a new update handler
func NewHandler(
	bot Sender,
	store *settings.Store,
	bl *blocklist.Blocklist,
	whitelist *Whitelist,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		bot:       bot,
		store:     store,
		blocklist: bl,
		whitelist: whitelist,
		limiter:   limiter.New[int64](0),
		logger:    logger,
	}
}

const helpText = "Commands:\n" +
	"/list - Show every setting\n" +
	"/get <name> - Show one setting\n" +
	"/set <name> <value> - Change a setting\n" +
	"/reset <name> - Restore the default\n" +
	"/block <bundle id> - Exclude an app from recordings\n" +
	"/unblock <bundle id> - Include an app again\n" +
	"/hotkeys - Show hotkey bindings\n\n" +
	"Values: on/off for switches, 3s for delays, #rrggbb for colors, " +
	"comma-separated lists, cmd+shift+5 for hotkeys."

// HandleUpdate processes a single update
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if ctx.Err() != nil {
		return
	}

	userID, allowed := h.whitelist.CheckAccess(update)
	if !allowed {
		if msg := update.Message; msg != nil && msg.Chat != nil && msg.Chat.IsPrivate() {
			h.sendText(msg.Chat.ID, apperrors.ErrUnauthorized.UserMsg)
		}
		return
	}

	msg := update.Message
	if !msg.IsCommand() {
		h.sendText(msg.Chat.ID, "Send /help to see what I can do.")
		return
	}

	// One command at a time per user keeps replies in order
	if !h.limiter.TryAcquire(userID) {
		h.sendText(msg.Chat.ID, apperrors.ErrBusy.UserMsg)
		return
	}
	defer h.limiter.Release(userID)

	h.logger.Debug("handling command", "command", msg.Command(), "user_id", userID)
	h.handleCommand(msg)
}

func (h *Handler) handleCommand(msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		h.sendText(msg.Chat.ID, "Welcome! I manage your screen recorder preferences.\n\n"+helpText)

	case "help":
		h.sendText(msg.Chat.ID, helpText)

	case "list":
		h.sendText(msg.Chat.ID, h.listText())

	case "get":
		h.handleGet(msg.Chat.ID, args)

	case "set":
		name, value, ok := strings.Cut(args, " ")
		if !ok || name == "" {
			h.sendText(msg.Chat.ID, "Usage: /set <name> <value>")
			return
		}
		h.handleSet(msg.Chat.ID, settings.Name(name), strings.TrimSpace(value))

	case "reset":
		if args == "" {
			h.sendText(msg.Chat.ID, "Usage: /reset <name>")
			return
		}
		h.handleReset(msg.Chat.ID, settings.Name(args))

	case "block":
		h.handleBlocklist(msg.Chat.ID, args, h.blocklist.Add)

	case "unblock":
		h.handleBlocklist(msg.Chat.ID, args, h.blocklist.Remove)

	case "hotkeys":
		h.sendText(msg.Chat.ID, h.hotkeysText())

	default:
		h.sendText(msg.Chat.ID, "Unknown command. Use /help for available commands.")
	}
}

func (h *Handler) listText() string {
	snapshot := h.store.Snapshot()
	var b strings.Builder
	for _, def := range settings.Definitions() {
		fmt.Fprintf(&b, "%s = %s\n", def.Name, settings.FormatValue(snapshot[def.Name]))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (h *Handler) hotkeysText() string {
	bound := h.store.Hotkeys()
	var b strings.Builder
	for _, action := range settings.HotkeyActions {
		fmt.Fprintf(&b, "%s = %s\n", action, settings.FormatValue(bound[action]))
	}
	b.WriteString("\nChange with /set " + settings.HotkeyPrefix + "<action> <combo>")
	return b.String()
}

func (h *Handler) handleGet(chatID int64, args string) {
	if args == "" {
		h.sendText(chatID, "Usage: /get <name>")
		return
	}
	name := settings.Name(args)
	if _, ok := settings.Lookup(name); !ok {
		h.sendText(chatID, errorText(fmt.Errorf("%w: %q", apperrors.ErrUnknownSetting, name)))
		return
	}
	h.sendText(chatID, fmt.Sprintf("%s = %s", name, settings.FormatValue(h.store.Get(name))))
}

func (h *Handler) handleSet(chatID int64, name settings.Name, text string) {
	value, err := settings.ParseValue(name, text)
	if err != nil {
		h.sendText(chatID, errorText(err))
		return
	}
	h.applyAndReport(chatID, name, func() ([]settings.Change, error) { return h.store.SetChanges(name, value) })
}

func (h *Handler) handleReset(chatID int64, name settings.Name) {
	h.applyAndReport(chatID, name, func() ([]settings.Change, error) { return h.store.ResetChanges(name) })
}

// applyAndReport runs a mutation and replies with the new value and any settings it changed along the way
func (h *Handler) applyAndReport(chatID int64, name settings.Name, mutate func() ([]settings.Change, error)) {
	changes, err := mutate()
	if err != nil && !apperrors.IsWarning(err) {
		h.sendText(chatID, errorText(err))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s = %s", name, settings.FormatValue(h.store.Get(name)))
	for _, c := range changes {
		if _, visible := settings.Lookup(c.Name); !visible || c.Name == name {
			continue
		}
		fmt.Fprintf(&b, "\nalso changed: %s = %s", c.Name, settings.FormatValue(c.New))
	}
	if err != nil {
		h.logger.Warn("setting not persisted", "name", name, "error", err)
		fmt.Fprintf(&b, "\n\n%s", apperrors.GetUserMessage(err))
	}
	h.sendText(chatID, b.String())
}

func (h *Handler) handleBlocklist(chatID int64, args string, edit func(...string) error) {
	ids := strings.Fields(args)
	if len(ids) == 0 {
		h.sendText(chatID, "Usage: /block <bundle id> or /unblock <bundle id>")
		return
	}
	if err := edit(ids...); err != nil && !apperrors.IsWarning(err) {
		h.sendText(chatID, errorText(err))
		return
	}
	h.sendText(chatID, "Excluded apps: "+settings.FormatValue(h.blocklist.List()))
}

const retryHint = "This is usually temporary, please try again."

// errorText renders the user message, plus the detail for input mistakes
// and a hint for failures worth retrying
func errorText(err error) string {
	msg := apperrors.GetUserMessage(err)
	if errors.Is(err, apperrors.ErrInvalidValue) || errors.Is(err, apperrors.ErrUnknownSetting) {
		if detail := err.Error(); detail != msg {
			return msg + "\n" + detail
		}
	}
	if apperrors.IsRetryable(err) {
		return msg + "\n" + retryHint
	}
	return msg
}

func (h *Handler) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.Error("failed to send message", "error", err, "chat_id", chatID)
	}
}
