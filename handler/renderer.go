package handler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"PerfumeBot/model"
	"PerfumeBot/quiz"
)

// Messenger is the part of the Telegram client the bot uses. *bot.Bot
// satisfies it.
type Messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

var errNoTarget = errors.New("no telegram target in context")

// target carries the per-update delivery details: the client, the message
// to replace and the callback query to answer.
type target struct {
	client     Messenger
	messageID  int
	callbackID string
	answered   bool
}

type targetKey struct{}

func withTarget(ctx context.Context, t *target) context.Context {
	return context.WithValue(ctx, targetKey{}, t)
}

func targetFrom(ctx context.Context) (*target, error) {
	t, ok := ctx.Value(targetKey{}).(*target)
	if !ok || t.client == nil {
		return nil, errNoTarget
	}
	return t, nil
}

// Renderer implements quiz.Renderer with inline keyboards. Prompts and
// results replace the message whose button was pressed; the first prompt
// of a session is sent as a new message.
type Renderer struct {
	timeout time.Duration
}

func NewRenderer(timeout time.Duration) *Renderer {
	return &Renderer{timeout: timeout}
}

func (r *Renderer) PresentPrompt(ctx context.Context, conversationID int64, text string, options []quiz.Choice) error {
	rows := make([][]models.InlineKeyboardButton, 0, len(options))
	for _, o := range options {
		rows = append(rows, []models.InlineKeyboardButton{{Text: o.Label, CallbackData: o.Action}})
	}
	return r.replace(ctx, conversationID, text, "", &models.InlineKeyboardMarkup{InlineKeyboard: rows})
}

func (r *Renderer) PresentResults(ctx context.Context, conversationID int64, items []model.CatalogItem, hasRecommendations bool) error {
	return r.replace(ctx, conversationID, ResultsText(items, hasRecommendations), models.ParseModeHTML, ResultsKeyboard(items, hasRecommendations))
}

// PresentAcknowledgment shows text as an alert on the pressed button, or as
// a message when there is no callback to answer.
func (r *Renderer) PresentAcknowledgment(ctx context.Context, conversationID int64, text string) error {
	t, err := targetFrom(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if t.callbackID != "" && !t.answered {
		t.answered = true
		if _, err := t.client.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: t.callbackID,
			Text:            text,
			ShowAlert:       true,
		}); err != nil {
			return fmt.Errorf("error answering callback query: %w", err)
		}
		return nil
	}

	_, err = t.client.SendMessage(ctx, &bot.SendMessageParams{ChatID: conversationID, Text: text})
	if err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}
	return nil
}

func (r *Renderer) PresentNotice(ctx context.Context, conversationID int64, text string) error {
	t, err := targetFrom(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err = t.client.SendMessage(ctx, &bot.SendMessageParams{ChatID: conversationID, Text: text})
	if err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}
	return nil
}

// replace edits the target message, or sends a new one and makes it the
// target for the rest of the update.
func (r *Renderer) replace(ctx context.Context, chatID int64, text string, mode models.ParseMode, markup *models.InlineKeyboardMarkup) error {
	t, err := targetFrom(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if t.messageID != 0 {
		_, err := t.client.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:      chatID,
			MessageID:   t.messageID,
			Text:        text,
			ParseMode:   mode,
			ReplyMarkup: markup,
		})
		if err != nil {
			return fmt.Errorf("error editing message: %w", err)
		}
		return nil
	}

	msg, err := t.client.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   mode,
		ReplyMarkup: markup,
	})
	if err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}
	if msg != nil {
		t.messageID = msg.ID
	}
	return nil
}

// ResultsText formats the recommendations as HTML.
func ResultsText(items []model.CatalogItem, hasRecommendations bool) string {
	if !hasRecommendations {
		return "😔 Unfortunately we could not find perfumes matching your answers.\n\n" +
			"Try different preferences or start over."
	}

	var sb strings.Builder
	sb.WriteString("🎉 Here are the perfumes we picked for you:\n\n")
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. <b>%s</b>\n", i+1, html.EscapeString(item.Name))
		fmt.Fprintf(&sb, "   %s\n", html.EscapeString(item.Description))
		fmt.Fprintf(&sb, "   💰 %s\n\n", html.EscapeString(item.Price))
	}
	sb.WriteString("Choose a perfume to buy or start over:")
	return sb.String()
}

// ResultsKeyboard has one purchase button per item followed by the restart
// button. Without recommendations only restart is offered.
func ResultsKeyboard(items []model.CatalogItem, hasRecommendations bool) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	if hasRecommendations {
		for _, item := range items {
			rows = append(rows, []models.InlineKeyboardButton{{
				Text:         "🛒 Buy " + item.Name,
				CallbackData: quiz.PurchaseAction(item.Name),
			}})
		}
	}
	rows = append(rows, []models.InlineKeyboardButton{{Text: "🔄 Start over", CallbackData: quiz.RestartAction()}})
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
