package model

// ConversationStep is the per-user mode that decides how free text is read.
type ConversationStep string

const (
	StepIdle           ConversationStep = "idle"
	StepAdding         ConversationStep = "adding"
	StepDeletingSelect ConversationStep = "deleting_select"
)

// ConversationState holds a user's position in the bot dialogue.
type ConversationState struct {
	Step ConversationStep `json:"step"`
}

// IdleState is the state every user starts in and returns to.
func IdleState() *ConversationState {
	return &ConversationState{Step: StepIdle}
}

func (s *ConversationState) IsIdle() bool { return s == nil || s.Step == "" || s.Step == StepIdle }
