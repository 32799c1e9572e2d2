package quiz

import (
	"context"

	"PerfumeBot/model"
)

// Choice is one selectable button: the label shown to the user and the
// encoded action sent back when it is pressed.
type Choice struct {
	Label  string
	Action string
}

// Renderer delivers engine output to a conversation. Implementations own
// transport errors and timeouts.
type Renderer interface {
	PresentPrompt(ctx context.Context, conversationID int64, text string, options []Choice) error
	PresentResults(ctx context.Context, conversationID int64, items []model.CatalogItem, hasRecommendations bool) error
	PresentAcknowledgment(ctx context.Context, conversationID int64, text string) error
	PresentNotice(ctx context.Context, conversationID int64, text string) error
}

// Recorder observes engine activity.
type Recorder interface {
	SessionStarted()
	Transition(event EventKind, from, to model.Phase)
	Rejected(event EventKind, reason error)
	Recommended(count int)
	PurchaseIntent(itemName string)
}

// IntentSink stores purchase intents outside the conversation.
type IntentSink interface {
	RecordPurchaseIntent(ctx context.Context, intent model.PurchaseIntent) error
}

type nopRecorder struct{}

func (nopRecorder) SessionStarted()                                {}
func (nopRecorder) Transition(EventKind, model.Phase, model.Phase) {}
func (nopRecorder) Rejected(EventKind, error)                      {}
func (nopRecorder) Recommended(int)                                {}
func (nopRecorder) PurchaseIntent(string)                          {}
