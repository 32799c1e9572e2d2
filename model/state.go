package model

// Phase is the position of a conversation in the survey lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAsking
	PhaseResults
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAsking:
		return "asking"
	case PhaseResults:
		return "results"
	case PhaseCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ConversationState is owned by exactly one conversation. While asking,
// len(Answers) == Cursor.
type ConversationState struct {
	Phase   Phase
	Answers []int
	Cursor  int
	// Recommendations holds the names shown in the last results message.
	Recommendations []string
}

// Reset clears the answers and puts the cursor back on the first question.
func (s *ConversationState) Reset() {
	s.Phase = PhaseAsking
	s.Answers = nil
	s.Cursor = 0
	s.Recommendations = nil
}

// Snapshot returns a copy that does not share slices with s.
func (s *ConversationState) Snapshot() ConversationState {
	c := *s
	c.Answers = append([]int(nil), s.Answers...)
	c.Recommendations = append([]string(nil), s.Recommendations...)
	return c
}

// PurchaseIntent is a non-transactional record of interest in an item.
type PurchaseIntent struct {
	ConversationID int64  `json:"conversationId"`
	ItemName       string `json:"itemName"`
	Answers        []int  `json:"answers"`
	CreatedAt      int64  `json:"createdAt"`
}
