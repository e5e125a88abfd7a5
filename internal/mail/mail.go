// Package mail builds and hands off magic link emails. Delivery guarantees
// belong to the Transport.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"text/template"
	"time"

	"github.com/spec-kit/magiclink-auth/internal/config"
)

// CallbackPath is where magic links land.
const CallbackPath = "/auth/callback"

// Message is one outbound email.
type Message struct {
	To      string
	From    string
	Subject string
	Body    string
}

// Transport delivers messages.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Sender is what the sign-in flow depends on.
type Sender interface {
	SendMagicLink(ctx context.Context, email, token, baseURL string) error
}

// TemplateParams is passed to the body template.
type TemplateParams struct {
	Email    string
	SiteName string
	Link     string
	TTL      time.Duration
}

const defaultTemplate = `Hi {{.Email}},

Use the link below to sign in to {{.SiteName}}:

{{.Link}}

The link works once and expires in {{printf "%.f" .TTL.Minutes}} minutes.

If you did not request it, you can ignore this email.
`

// Dispatcher renders magic link emails and passes them to a Transport.
type Dispatcher struct {
	transport Transport
	from      string
	siteName  string
	ttl       time.Duration
	body      *template.Template
}

// NewDispatcher builds a dispatcher for links valid for ttl.
func NewDispatcher(cfg config.MailConfig, ttl time.Duration, transport Transport) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		from:      cfg.From,
		siteName:  cfg.SiteName,
		ttl:       ttl,
		body:      template.Must(template.New("magic-link").Parse(defaultTemplate)),
	}
}

// SendMagicLink builds the sign-in URL for token and sends it to email.
func (d *Dispatcher) SendMagicLink(ctx context.Context, email, token, baseURL string) error {
	msg, err := d.Compose(email, token, baseURL)
	if err != nil {
		return err
	}
	return d.transport.Send(ctx, msg)
}

// Compose renders the message without sending it.
func (d *Dispatcher) Compose(email, token, baseURL string) (Message, error) {
	link, err := BuildMagicLink(baseURL, token)
	if err != nil {
		return Message{}, err
	}

	var body bytes.Buffer
	if err := d.body.Execute(&body, TemplateParams{Email: email, SiteName: d.siteName, Link: link, TTL: d.ttl}); err != nil {
		return Message{}, fmt.Errorf("render magic link email: %w", err)
	}

	return Message{
		To:      email,
		From:    d.from,
		Subject: fmt.Sprintf("Your sign-in link for %s", d.siteName),
		Body:    body.String(),
	}, nil
}

// BuildMagicLink returns baseURL + CallbackPath with the token as query parameter.
func BuildMagicLink(baseURL, token string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("base url %q must be absolute http(s)", baseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/") + CallbackPath
	q := url.Values{}
	q.Set("token", token)
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String(), nil
}
