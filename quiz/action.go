package quiz

import (
	"fmt"
	"strconv"
	"strings"

	"PerfumeBot/model"
)

// MaxActionLength is the largest encoded action the chat platform accepts
// as button payload.
const MaxActionLength = 64

const (
	answerPrefix   = "answer:"
	purchasePrefix = "purchase:"
	restartAction  = "restart"
)

type ActionKind int

const (
	ActionAnswer ActionKind = iota + 1
	ActionPurchase
	ActionRestart
)

// Action is a decoded button payload.
type Action struct {
	Kind     ActionKind
	Question int
	Choice   int
	ItemName string
}

// AnswerAction encodes the selection of option choice on question q.
func AnswerAction(q, choice int) string {
	return answerPrefix + strconv.Itoa(q) + ":" + strconv.Itoa(choice)
}

// PurchaseAction encodes interest in the named item. The name follows the
// prefix verbatim, so any character is allowed in it.
func PurchaseAction(name string) string {
	return purchasePrefix + name
}

func RestartAction() string {
	return restartAction
}

// PurchaseNameLimit is the longest item name whose purchase action still
// fits in MaxActionLength.
func PurchaseNameLimit() int {
	return MaxActionLength - len(purchasePrefix)
}

// DecodeAction parses a button payload. Anything outside the known schemas
// yields model.ErrUnknownAction.
func DecodeAction(data string) (Action, error) {
	switch {
	case data == restartAction:
		return Action{Kind: ActionRestart}, nil

	case strings.HasPrefix(data, purchasePrefix):
		name := strings.TrimPrefix(data, purchasePrefix)
		if name == "" {
			return Action{}, fmt.Errorf("%w: %q", model.ErrUnknownAction, data)
		}
		return Action{Kind: ActionPurchase, ItemName: name}, nil

	case strings.HasPrefix(data, answerPrefix):
		qs, cs, ok := strings.Cut(strings.TrimPrefix(data, answerPrefix), ":")
		if !ok {
			return Action{}, fmt.Errorf("%w: %q", model.ErrUnknownAction, data)
		}
		q, err := parseIndex(qs)
		if err != nil {
			return Action{}, fmt.Errorf("%w: %q", model.ErrUnknownAction, data)
		}
		c, err := parseIndex(cs)
		if err != nil {
			return Action{}, fmt.Errorf("%w: %q", model.ErrUnknownAction, data)
		}
		return Action{Kind: ActionAnswer, Question: q, Choice: c}, nil
	}

	return Action{}, fmt.Errorf("%w: %q", model.ErrUnknownAction, data)
}

// parseIndex accepts only canonical non-negative decimals ("1", not "+1" or "01").
func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 || strconv.Itoa(n) != s {
		return 0, fmt.Errorf("non-canonical index %q", s)
	}
	return n, nil
}
