package quiz

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"PerfumeBot/model"
)

type EventKind int

const (
	EventUnknown EventKind = iota
	EventStart
	EventAnswer
	EventRestart
	EventPurchase
	EventCancel
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventAnswer:
		return "answer"
	case EventRestart:
		return "restart"
	case EventPurchase:
		return "purchase"
	case EventCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Event is a typed input to the state machine.
type Event struct {
	Kind     EventKind
	Question int
	Choice   int
	ItemName string
}

const defaultIntentTimeout = 10 * time.Second

const (
	promptFormat = "Question %d/%d:\n%s"
	ackFormat    = "Thank you for your interest in %s! Our shop is coming soon."
	cancelNotice = "Survey cancelled. Use /start to begin again."
)

type dispatchKey struct {
	phase model.Phase
	kind  EventKind
}

// transition mutates st and returns the render step to run once the new
// state is in place.
type transition func(conversationID int64, st *model.ConversationState, ev Event) (func(ctx context.Context) error, error)

// Engine drives conversations through the survey.
type Engine struct {
	survey   *model.Survey
	renderer Renderer
	sessions *Sessions
	recorder Recorder
	intents  IntentSink
	logger   zerolog.Logger
	now      func() time.Time

	// intentTimeout bounds the sink call, which runs under the conversation lock.
	intentTimeout time.Duration

	table map[dispatchKey]transition
}

type Option func(*Engine)

func WithSessions(sessions *Sessions) Option {
	return func(e *Engine) {
		e.sessions = sessions
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(e *Engine) {
		e.recorder = recorder
	}
}

// WithIntentSink records every purchase intent. Sink failures are logged and
// do not affect the acknowledgment.
func WithIntentSink(sink IntentSink) Option {
	return func(e *Engine) {
		e.intents = sink
	}
}

// WithIntentTimeout bounds each IntentSink call.
func WithIntentTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.intentTimeout = d
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine builds an engine over a validated survey.
func NewEngine(survey *model.Survey, renderer Renderer, opts ...Option) *Engine {
	e := &Engine{
		survey:        survey,
		renderer:      renderer,
		recorder:      nopRecorder{},
		intentTimeout: defaultIntentTimeout,
		logger:        zerolog.Nop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sessions == nil {
		e.sessions = NewSessions(WithSessionsLogger(e.logger))
	}

	e.table = map[dispatchKey]transition{
		{model.PhaseIdle, EventStart}:    e.start,
		{model.PhaseAsking, EventStart}:  e.start,
		{model.PhaseResults, EventStart}: e.start,

		{model.PhaseAsking, EventAnswer}: e.answer,

		{model.PhaseAsking, EventRestart}:  e.restart,
		{model.PhaseResults, EventRestart}: e.restart,

		{model.PhaseResults, EventPurchase}: e.purchase,

		{model.PhaseAsking, EventCancel}: e.cancel,
	}
	return e
}

// OnSessionStart begins a fresh survey for the conversation.
func (e *Engine) OnSessionStart(ctx context.Context, conversationID int64) error {
	return e.Dispatch(ctx, conversationID, Event{Kind: EventStart})
}

// OnChoiceSelected decodes a button payload and dispatches the matching event.
func (e *Engine) OnChoiceSelected(ctx context.Context, conversationID int64, actionID string) error {
	action, err := DecodeAction(actionID)
	if err != nil {
		e.recorder.Rejected(EventUnknown, err)
		return err
	}

	var ev Event
	switch action.Kind {
	case ActionAnswer:
		ev = Event{Kind: EventAnswer, Question: action.Question, Choice: action.Choice}
	case ActionPurchase:
		ev = Event{Kind: EventPurchase, ItemName: action.ItemName}
	case ActionRestart:
		ev = Event{Kind: EventRestart}
	}
	return e.Dispatch(ctx, conversationID, ev)
}

func (e *Engine) OnCancelRequested(ctx context.Context, conversationID int64) error {
	return e.Dispatch(ctx, conversationID, Event{Kind: EventCancel})
}

// State returns a copy of the conversation's current state.
func (e *Engine) State(conversationID int64) model.ConversationState {
	return e.sessions.Snapshot(conversationID)
}

// Dispatch applies ev to the conversation. Rejected events leave the state
// untouched and return an error wrapping one of the model sentinels. A render
// failure is returned after the state change has been committed.
func (e *Engine) Dispatch(ctx context.Context, conversationID int64, ev Event) error {
	return e.sessions.WithState(ctx, conversationID, func(ctx context.Context, st *model.ConversationState) error {
		from := st.Phase
		logger := e.logger.With().
			Int64("conversation_id", conversationID).
			Stringer("event", ev.Kind).
			Stringer("phase", from).
			Logger()

		step, ok := e.table[dispatchKey{from, ev.Kind}]
		if !ok {
			e.recorder.Rejected(ev.Kind, model.ErrInvalidTransition)
			return fmt.Errorf("%w: %s while %s", model.ErrInvalidTransition, ev.Kind, from)
		}

		render, err := step(conversationID, st, ev)
		if err != nil {
			e.recorder.Rejected(ev.Kind, err)
			return err
		}

		e.recorder.Transition(ev.Kind, from, st.Phase)
		logger.Debug().Stringer("to", st.Phase).Msg("transition")

		if err := render(ctx); err != nil {
			return fmt.Errorf("render %s: %w", ev.Kind, err)
		}
		return nil
	})
}

func (e *Engine) start(conversationID int64, st *model.ConversationState, _ Event) (func(ctx context.Context) error, error) {
	st.Reset()
	e.recorder.SessionStarted()

	welcome := e.survey.Welcome
	return func(ctx context.Context) error {
		if welcome != "" {
			if err := e.renderer.PresentNotice(ctx, conversationID, welcome); err != nil {
				return err
			}
		}
		return e.presentQuestion(ctx, conversationID, 0)
	}, nil
}

func (e *Engine) restart(conversationID int64, st *model.ConversationState, _ Event) (func(ctx context.Context) error, error) {
	st.Reset()
	return func(ctx context.Context) error {
		return e.presentQuestion(ctx, conversationID, 0)
	}, nil
}

func (e *Engine) answer(conversationID int64, st *model.ConversationState, ev Event) (func(ctx context.Context) error, error) {
	if ev.Question != st.Cursor {
		return nil, fmt.Errorf("%w: question %d, expected %d", model.ErrStaleChoice, ev.Question, st.Cursor)
	}
	options := e.survey.Questions[st.Cursor].Options
	if ev.Choice < 0 || ev.Choice >= len(options) {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", model.ErrOutOfRangeChoice, ev.Choice, len(options))
	}

	st.Answers = append(st.Answers, ev.Choice)
	st.Cursor++

	if st.Cursor < len(e.survey.Questions) {
		next := st.Cursor
		return func(ctx context.Context) error {
			return e.presentQuestion(ctx, conversationID, next)
		}, nil
	}

	items := Score(e.survey.Catalog, st.Answers)
	st.Phase = model.PhaseResults
	st.Recommendations = make([]string, 0, len(items))
	for _, item := range items {
		st.Recommendations = append(st.Recommendations, item.Name)
	}
	e.recorder.Recommended(len(items))

	return func(ctx context.Context) error {
		return e.renderer.PresentResults(ctx, conversationID, items, len(items) > 0)
	}, nil
}

func (e *Engine) purchase(conversationID int64, st *model.ConversationState, ev Event) (func(ctx context.Context) error, error) {
	if !slices.Contains(st.Recommendations, ev.ItemName) {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownItem, ev.ItemName)
	}
	e.recorder.PurchaseIntent(ev.ItemName)

	intent := model.PurchaseIntent{
		ConversationID: conversationID,
		ItemName:       ev.ItemName,
		Answers:        append([]int(nil), st.Answers...),
		CreatedAt:      e.now().Unix(),
	}
	return func(ctx context.Context) error {
		if e.intents != nil {
			sinkCtx, cancel := context.WithTimeout(ctx, e.intentTimeout)
			err := e.intents.RecordPurchaseIntent(sinkCtx, intent)
			cancel()
			if err != nil {
				e.logger.Error().Err(err).Int64("conversation_id", conversationID).Str("item", intent.ItemName).Msg("record purchase intent")
			}
		}
		return e.renderer.PresentAcknowledgment(ctx, conversationID, fmt.Sprintf(ackFormat, intent.ItemName))
	}, nil
}

// cancel marks the conversation cancelled; the session store then discards it,
// so the next event sees an idle conversation where only start is accepted.
func (e *Engine) cancel(conversationID int64, st *model.ConversationState, _ Event) (func(ctx context.Context) error, error) {
	*st = model.ConversationState{Phase: model.PhaseCancelled}
	return func(ctx context.Context) error {
		return e.renderer.PresentNotice(ctx, conversationID, cancelNotice)
	}, nil
}

func (e *Engine) presentQuestion(ctx context.Context, conversationID int64, ordinal int) error {
	q := e.survey.Questions[ordinal]
	options := make([]Choice, len(q.Options))
	for i, label := range q.Options {
		options[i] = Choice{Label: label, Action: AnswerAction(ordinal, i)}
	}
	text := fmt.Sprintf(promptFormat, ordinal+1, len(e.survey.Questions), q.Text)
	return e.renderer.PresentPrompt(ctx, conversationID, text, options)
}

// IsRejection reports whether err is an event the engine refused without
// changing state, as opposed to a delivery failure.
func IsRejection(err error) bool {
	return errors.Is(err, model.ErrInvalidTransition) ||
		errors.Is(err, model.ErrOutOfRangeChoice) ||
		errors.Is(err, model.ErrStaleChoice) ||
		errors.Is(err, model.ErrUnknownAction) ||
		errors.Is(err, model.ErrUnknownItem)
}
