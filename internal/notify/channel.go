package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/browser"
)

// Message is what a Channel hands off.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Channel hands a message to something that will deliver it. A nil error means
// the hand-off was accepted, not that the message was delivered.
type Channel interface {
	Send(ctx context.Context, msg Message) error
}

// ChannelFunc adapts a function to Channel
type ChannelFunc func(ctx context.Context, msg Message) error

func (f ChannelFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

// HandoffChannel opens an sms: or mailto: URI with the operating system's default
// handler, which pre-fills the native composer.
type HandoffChannel struct {
	Scheme string // "sms" or "mailto"
	// Open defaults to browser.OpenURL.
	Open func(uri string) error
}

func NewSMSHandoff() *HandoffChannel   { return &HandoffChannel{Scheme: "sms"} }
func NewEmailHandoff() *HandoffChannel { return &HandoffChannel{Scheme: "mailto"} }

func (h *HandoffChannel) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var uri string
	switch h.Scheme {
	case "sms":
		uri = SMSURI(msg.To, msg.Body)
	case "mailto":
		uri = MailtoURI(msg.To, msg.Subject, msg.Body)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMethod, h.Scheme)
	}

	open := h.Open
	if open == nil {
		open = browser.OpenURL
	}
	if err := open(uri); err != nil {
		return fmt.Errorf("failed to open %s composer: %w", h.Scheme, err)
	}
	return nil
}

// SMSURI builds sms:<phone>?body=<text>
func SMSURI(phone, body string) string {
	return "sms:" + strings.TrimSpace(phone) + "?body=" + escape(body)
}

// MailtoURI builds mailto:<address>?subject=..&body=..
func MailtoURI(address, subject, body string) string {
	return "mailto:" + strings.TrimSpace(address) + "?subject=" + escape(subject) + "&body=" + escape(body)
}

// escape percent-encodes s for a URI query, with %20 for spaces since mail and
// SMS clients do not decode '+'.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
