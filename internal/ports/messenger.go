package ports

import "context"

// ChatUser is the sender of a chat update.
type ChatUser struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// DisplayName prefers the full name, then the username.
func (u ChatUser) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		name = u.Username
	}
	return name
}

// ChatUpdate is one inbound message or button press.
type ChatUpdate struct {
	UpdateID     int
	ChatID       int64
	MessageID    int
	From         ChatUser
	Text         string
	CallbackID   string
	CallbackData string
}

func (u ChatUpdate) IsCallback() bool { return u.CallbackID != "" }

type ChatButton struct {
	Text string
	Data string
}

// ChatMessage is an outbound text. Inline buttons attach to the message;
// Keyboard replaces the persistent reply keyboard.
type ChatMessage struct {
	Text           string
	Inline         [][]ChatButton
	Keyboard       [][]string
	RemoveKeyboard bool
}

type ChatDocument struct {
	FileName string
	Data     []byte
	Caption  string
}

// Messenger is the outbound side of a chat transport.
type Messenger interface {
	Send(ctx context.Context, chatID int64, msg ChatMessage) (messageID int, err error)
	Edit(ctx context.Context, chatID int64, messageID int, msg ChatMessage) error
	SendDocument(ctx context.Context, chatID int64, doc ChatDocument) error
	AnswerCallback(ctx context.Context, callbackID string, text string) error
}
