package notify

import "context"

// Template names.
const (
	TemplateWelcome = "welcome.md"
	TemplateLogin   = "login.md"
)

// Message is a templated e-mail to one recipient.
type Message struct {
	Data     map[string]string `json:"data,omitempty"`
	To       string            `json:"to"`
	Template string            `json:"template"`
}

// Email is a rendered message ready for delivery.
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers rendered e-mails.
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// Dispatcher accepts messages for delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

// Welcome asks a new account to verify its address.
func Welcome(to, username, verifyURL string) Message {
	return Message{
		To:       to,
		Template: TemplateWelcome,
		Data:     map[string]string{"Username": username, "VerifyURL": verifyURL},
	}
}

// NewLogin warns an account about a successful login.
func NewLogin(to, username string) Message {
	return Message{
		To:       to,
		Template: TemplateLogin,
		Data:     map[string]string{"Username": username},
	}
}
