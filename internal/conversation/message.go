// Package conversation models the message log a widget accumulates.
package conversation

import "github.com/Proton-105/weva-assistant/internal/domain"

// Speaker attributes a turn to one side of the conversation.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Kind classifies a log entry.
type Kind string

const (
	KindGreeting       Kind = "greeting"
	KindCategoryPrompt Kind = "category_prompt"
	KindEntityList     Kind = "entity_list"
	KindPlainText      Kind = "plain_text"
	KindError          Kind = "error"
)

// Affordance is an extra control attached to an assistant message.
type Affordance string

const (
	AffordanceNone           Affordance = ""
	AffordanceYesNo          Affordance = "yes_no"
	AffordanceChangeCategory Affordance = "change_category"
)

// Message is a single turn in the log.
type Message struct {
	TurnID     uint64     `json:"turn_id"`
	Speaker    Speaker    `json:"speaker"`
	Kind       Kind       `json:"kind"`
	Text       string     `json:"text,omitempty"`
	Payload    Listing    `json:"payload,omitempty"`
	Affordance Affordance `json:"affordance,omitempty"`
}

// Listing is the read-only view of an EntityList payload.
type Listing interface {
	Entity() domain.EntityKind
	Len() int
	Choices() []domain.Entity
}

// EntityList is the canonical payload for every choice list the assistant shows.
type EntityList[T domain.Entity] struct {
	Kind  domain.EntityKind `json:"kind"`
	Items []T               `json:"items"`
}

// NewEntityList copies items into a list of the given kind.
func NewEntityList[T domain.Entity](kind domain.EntityKind, items []T) EntityList[T] {
	copied := make([]T, len(items))
	copy(copied, items)
	return EntityList[T]{Kind: kind, Items: copied}
}

func (l EntityList[T]) Entity() domain.EntityKind { return l.Kind }

func (l EntityList[T]) Len() int { return len(l.Items) }

// Choices returns the items as generic entities in list order.
func (l EntityList[T]) Choices() []domain.Entity {
	out := make([]domain.Entity, 0, len(l.Items))
	for _, item := range l.Items {
		out = append(out, item)
	}
	return out
}

// UserTurn builds a user message echoing a selection or a typed line.
func UserTurn(text string) Message {
	return Message{Speaker: SpeakerUser, Kind: KindPlainText, Text: text}
}

// AssistantText builds an assistant message of the given kind.
func AssistantText(kind Kind, text string, affordance Affordance) Message {
	return Message{Speaker: SpeakerAssistant, Kind: kind, Text: text, Affordance: affordance}
}

// AssistantList builds an assistant message that carries a choice list.
func AssistantList(text string, payload Listing, affordance Affordance) Message {
	return Message{Speaker: SpeakerAssistant, Kind: KindEntityList, Text: text, Payload: payload, Affordance: affordance}
}
