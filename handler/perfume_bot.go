package handler

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"PerfumeBot/quiz"
)

const (
	helpText = "I help you find a perfume in a few questions.\n\n" +
		"/start – take the survey\n" +
		"/cancel – stop the current survey\n" +
		"/help – show this message"
	unknownText = "I didn't understand that command. Use /start or /help."
)

// Dispatcher is the conversation core driven by Telegram updates.
type Dispatcher interface {
	OnSessionStart(ctx context.Context, conversationID int64) error
	OnChoiceSelected(ctx context.Context, conversationID int64, actionID string) error
	OnCancelRequested(ctx context.Context, conversationID int64) error
}

// PerfumeBotHandler turns Telegram updates into survey events.
type PerfumeBotHandler struct {
	dispatcher Dispatcher
	logger     zerolog.Logger
}

func NewPerfumeBotHandler(dispatcher Dispatcher, logger zerolog.Logger) *PerfumeBotHandler {
	return &PerfumeBotHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Options registers the handler's routes on a new bot. Commands are parsed by
// the default handler so "/start@BotName" and "/start <payload>" also match.
func (h *PerfumeBotHandler) Options() []bot.Option {
	return []bot.Option{
		bot.WithDefaultHandler(h.Default),
		bot.WithCallbackQueryDataHandler("", bot.MatchTypePrefix, h.Callback),
	}
}

func (h *PerfumeBotHandler) Default(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handleMessage(ctx, b, update)
}

func (h *PerfumeBotHandler) Callback(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handleCallback(ctx, b, update)
}

func (h *PerfumeBotHandler) handleMessage(ctx context.Context, client Messenger, update *models.Update) {
	if update.Message == nil {
		return
	}

	switch commandName(update.Message.Text) {
	case "start":
		h.handleStart(ctx, client, update)
	case "cancel":
		h.handleCancel(ctx, client, update)
	case "help":
		h.reply(ctx, client, update, helpText)
	default:
		h.reply(ctx, client, update, unknownText)
	}
}

// commandName returns the bot command in text without the leading slash, the
// "@BotName" suffix and any arguments. It is empty for plain text.
func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	name, _, _ := strings.Cut(strings.TrimPrefix(fields[0], "/"), "@")
	return strings.ToLower(name)
}

func (h *PerfumeBotHandler) handleStart(ctx context.Context, client Messenger, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	h.logUser(update.Message.From, chatID).Msg("survey started")

	err := h.dispatcher.OnSessionStart(withTarget(ctx, &target{client: client}), chatID)
	h.logResult(err, chatID, "start")
}

func (h *PerfumeBotHandler) handleCancel(ctx context.Context, client Messenger, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	h.logUser(update.Message.From, chatID).Msg("survey cancel requested")

	err := h.dispatcher.OnCancelRequested(withTarget(ctx, &target{client: client}), chatID)
	if quiz.IsRejection(err) {
		h.reply(ctx, client, update, "There is no survey in progress. Use /start to begin.")
	}
	h.logResult(err, chatID, "cancel")
}

func (h *PerfumeBotHandler) handleCallback(ctx context.Context, client Messenger, update *models.Update) {
	query := update.CallbackQuery
	if query == nil {
		return
	}

	chatID := query.From.ID
	t := &target{client: client, callbackID: query.ID}
	switch {
	case query.Message.Message != nil:
		chatID = query.Message.Message.Chat.ID
		t.messageID = query.Message.Message.ID
	case query.Message.InaccessibleMessage != nil:
		chatID = query.Message.InaccessibleMessage.Chat.ID
		t.messageID = query.Message.InaccessibleMessage.MessageID
	}

	err := h.dispatcher.OnChoiceSelected(withTarget(ctx, t), chatID, query.Data)
	h.logResult(err, chatID, query.Data)

	if !t.answered {
		// stops the loading indicator on the pressed button
		if _, err := client.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: query.ID}); err != nil {
			h.logger.Error().Err(err).Int64("conversation_id", chatID).Msg("error answering callback query")
		}
	}
}

func (h *PerfumeBotHandler) reply(ctx context.Context, client Messenger, update *models.Update, text string) {
	if update.Message == nil {
		return
	}
	_, err := client.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error().Err(err).Int64("conversation_id", update.Message.Chat.ID).Msg("error sending message")
	}
}

func (h *PerfumeBotHandler) logUser(from *models.User, chatID int64) *zerolog.Event {
	ev := h.logger.Info().Int64("conversation_id", chatID)
	if from != nil {
		ev = ev.Str("user", from.FirstName)
	}
	return ev
}

// logResult keeps rejected events at debug level; they are expected when
// users press old buttons.
func (h *PerfumeBotHandler) logResult(err error, chatID int64, event string) {
	switch {
	case err == nil:
	case quiz.IsRejection(err):
		h.logger.Debug().Err(err).Int64("conversation_id", chatID).Str("event", event).Msg("event rejected")
	default:
		h.logger.Error().Err(err).Int64("conversation_id", chatID).Str("event", event).Msg("error handling event")
	}
}
