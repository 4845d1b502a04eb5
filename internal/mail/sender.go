package mail

import "errors"

// ErrNotConfigured is returned by the null sender when no mail backend is
// set up. It surfaces to operators as a 5xx, never as an auth failure.
var ErrNotConfigured = errors.New("mail service is not configured")

type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
	IsHTML  bool
}

type MailSender interface {
	Send(message *Message) error
}

// nullSender rejects every message with ErrNotConfigured.
type nullSender struct{}

func (nullSender) Send(*Message) error {
	return ErrNotConfigured
}

func NewNullSender() MailSender {
	return nullSender{}
}
