package flow

import "io"

// EventKind enumerates what a conversation can receive.
type EventKind int

const (
	EventText EventKind = iota + 1
	EventDocument
	EventFollowUp
	EventPages
	EventCustomPages
	EventConfirm
	EventDecline
	EventSelectPlan
	EventCancel
)

var eventNames = map[EventKind]string{
	EventText:        "text",
	EventDocument:    "document",
	EventFollowUp:    "follow_up",
	EventPages:       "pages",
	EventCustomPages: "custom_pages",
	EventConfirm:     "confirm",
	EventDecline:     "decline",
	EventSelectPlan:  "select_plan",
	EventCancel:      "cancel",
}

func (k EventKind) String() string {
	if s, ok := eventNames[k]; ok {
		return s
	}
	return "unknown"
}

// Document describes an uploaded file.
type Document struct {
	FileID   string
	FileName string
	MIME     string
	Size     int64
}

// Event is one input to a machine. Payload carries button data.
type Event struct {
	Kind     EventKind
	Text     string
	Payload  string
	Document *Document
}

// Identity is who the event came from.
type Identity struct {
	ChatID    int64
	UserID    int64
	Username  string
	FirstName string
}

// Button is an inline keyboard button. URL buttons ignore Unique and Data.
type Button struct {
	Text   string
	Unique string
	Data   string
	URL    string
}

// Keyboard rows top to bottom.
type Keyboard [][]Button

// Row is a shorthand for a single-row keyboard.
func Row(buttons ...Button) Keyboard {
	return Keyboard{buttons}
}

// Responder is the outbound side of a conversation.
type Responder interface {
	// Send posts a new Markdown message. Long text is split; kb goes on the last chunk.
	Send(text string, kb Keyboard) error
	// Edit replaces the message behind a pressed button, sending a new one when that fails.
	Edit(text string, kb Keyboard) error
	// Fetch downloads an uploaded document.
	Fetch(doc Document) (io.ReadCloser, error)
}
