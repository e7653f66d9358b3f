// pkg/email/email.go
package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"newsletter_backend/internal/model"
)

const defaultEndpoint = "https://api.resend.com/emails"

type EmailService struct {
	apiKey   string
	endpoint string
	override fs.FS
}

type EmailData struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	Html    string `json:"html,omitempty"`
}

// MessageContext is the data every newsletter template renders with.
type MessageContext struct {
	Subscription *model.Subscription
	Newsletter   *model.Newsletter
	Site         string
	Date         *time.Time
	Message      *model.Message
}

func NewEmailService(apiKey, templatesDir string) (*EmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}

	return &EmailService{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		override: OverrideDir(templatesDir),
	}, nil
}

// SendActivationEmail renders the action's templates for the subscription's
// newsletter and mails the confirmation link to the subscriber. The HTML
// alternative is only attached when the newsletter sends HTML and a template
// resolves.
func (s *EmailService) SendActivationEmail(sub *model.Subscription, action string) error {
	if !model.ValidAction(action) {
		return fmt.Errorf("unknown action: %s", action)
	}

	ctx := &MessageContext{
		Subscription: sub,
		Newsletter:   &sub.Newsletter,
		Site:         sub.Newsletter.SiteURL,
		Date:         sub.SubscribeDate,
	}

	if err := s.sendRendered(sub, action, ctx); err != nil {
		return err
	}

	log.Printf("Activation email sent for action %q to %s with activation code %q",
		action, sub.Recipient(), sub.ActivationCode)

	return nil
}

// SendMessageEmail delivers a newsletter message to a single subscriber using
// the "message" template set.
func (s *EmailService) SendMessageEmail(sub *model.Subscription, msg *model.Message) error {
	now := time.Now()
	ctx := &MessageContext{
		Subscription: sub,
		Newsletter:   &sub.Newsletter,
		Site:         sub.Newsletter.SiteURL,
		Date:         &now,
		Message:      msg,
	}

	return s.sendRendered(sub, ActionMessage, ctx)
}

func (s *EmailService) sendRendered(sub *model.Subscription, action string, ctx *MessageContext) error {
	templates, err := s.Templates(&sub.Newsletter, action)
	if err != nil {
		return err
	}

	var subject bytes.Buffer
	if err := templates.Subject.Execute(&subject, ctx); err != nil {
		return fmt.Errorf("subject template execution error: %v", err)
	}

	var text bytes.Buffer
	if err := templates.Text.Execute(&text, ctx); err != nil {
		return fmt.Errorf("text template execution error: %v", err)
	}

	data := EmailData{
		From:    sub.Newsletter.Sender(),
		To:      sub.Recipient(),
		Subject: strings.TrimSpace(subject.String()),
		Text:    text.String(),
	}

	if templates.HTML != nil {
		var html bytes.Buffer
		if err := templates.HTML.Execute(&html, ctx); err != nil {
			return fmt.Errorf("html template execution error: %v", err)
		}
		data.Html = html.String()
	}

	return s.send(data)
}

func (s *EmailService) send(data EmailData) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("error marshaling email data: %v", err)
	}

	req, err := http.NewRequest("POST", s.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("resend API error: %s", string(respBody))
	}

	return nil
}
