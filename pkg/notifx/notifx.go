// Package notifx sends the broker's account lifecycle emails. Delivery is
// fire-and-forget from the caller's point of view; a send failure never fails
// the operation that triggered it.
package notifx

import (
	"context"
	"fmt"
)

// EmailSender sends a single email.
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

// EmailMessage represents an email to be sent.
type EmailMessage struct {
	From     string   `json:"from"`
	To       []string `json:"to"`
	ReplyTo  string   `json:"reply_to,omitempty"`
	Subject  string   `json:"subject"`
	TextBody string   `json:"text_body,omitempty"`
	HTMLBody string   `json:"html_body,omitempty"`
}

// Client is the entry point for sending notifications.
type Client struct {
	provider    EmailSender
	templates   *TemplateRegistry
	fromAddress string
	fromName    string
}

// NewClient creates a notification client with the built-in templates
// registered.
func NewClient(provider EmailSender, fromAddress, fromName string) *Client {
	c := &Client{
		provider:    provider,
		templates:   NewTemplateRegistry(),
		fromAddress: fromAddress,
		fromName:    fromName,
	}
	// Built-in templates cannot fail to parse.
	_ = c.templates.Register(templateAccountCreated, accountCreatedHTML)
	return c
}

// SendEmail sends an email through the configured provider.
func (c *Client) SendEmail(ctx context.Context, msg EmailMessage) error {
	if len(msg.To) == 0 {
		return notifxErrors.New(ErrInvalidMessage).WithDetail("reason", "no recipients")
	}
	if msg.Subject == "" {
		return notifxErrors.New(ErrInvalidMessage).WithDetail("reason", "empty subject")
	}
	if msg.From == "" {
		msg.From = c.from()
	}
	return c.provider.SendEmail(ctx, msg)
}

// SendAccountCreated sends the welcome email for a freshly created account.
func (c *Client) SendAccountCreated(ctx context.Context, to, username string) error {
	body, err := c.templates.Render(templateAccountCreated, accountCreatedData{
		Username: username,
	})
	if err != nil {
		return err
	}

	return c.SendEmail(ctx, EmailMessage{
		To:       []string{to},
		Subject:  "Welcome to LibroMesh",
		TextBody: fmt.Sprintf("Hi %s, your LibroMesh account has been created.", username),
		HTMLBody: body,
	})
}

func (c *Client) from() string {
	if c.fromName != "" {
		return fmt.Sprintf("%s <%s>", c.fromName, c.fromAddress)
	}
	return c.fromAddress
}
