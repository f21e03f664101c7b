package widget

import (
	"github.com/Proton-105/weva-assistant/internal/conversation"
	"github.com/Proton-105/weva-assistant/internal/domain"
	"github.com/Proton-105/weva-assistant/internal/state"
)

// View is a read-only snapshot of a widget for projectors.
type View struct {
	Step           state.Step
	Locale         domain.Locale
	Selection      state.Selection
	Offers         state.Offers
	ShowCategories bool
	AwaitingAnswer bool
	IsTyping       bool
	Messages       []conversation.Message
}

// Open reports whether the widget is showing a conversation.
func (v View) Open() bool {
	return v.Step != state.StepIdle
}

// Since returns the messages newer than turnID.
func (v View) Since(turnID uint64) []conversation.Message {
	for i, msg := range v.Messages {
		if msg.TurnID > turnID {
			return v.Messages[i:]
		}
	}
	return nil
}

// LastTurnID returns the id of the newest message, or 0 for an empty log.
func (v View) LastTurnID() uint64 {
	if len(v.Messages) == 0 {
		return 0
	}
	return v.Messages[len(v.Messages)-1].TurnID
}
