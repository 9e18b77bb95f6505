package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/lexorahq/lexora-backend/pkg/config"
	"github.com/lexorahq/lexora-backend/pkg/errors"
	"github.com/lexorahq/lexora-backend/pkg/logger"
)

// Sender delivers transactional emails.
type Sender interface {
	SendTemplate(ctx context.Context, msg TemplateMessage) error
}

// TemplateMessage describes a dynamic-template send.
type TemplateMessage struct {
	ToEmail    string
	ToName     string
	TemplateID string
	Data       map[string]any
}

type sendgridAPI interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendgridSender sends emails through the SendGrid v3 mail API.
type SendgridSender struct {
	api    sendgridAPI
	from   *mail.Email
	logger *logger.Logger
}

// NewSendgridSender builds a sender from the SendGrid config.
func NewSendgridSender(cfg config.SendgridConfig, logg *logger.Logger) (*SendgridSender, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New(errors.CodeInternal, "sendgrid api key is required")
	}
	from := strings.TrimSpace(cfg.DefaultFrom)
	if from == "" {
		return nil, errors.New(errors.CodeInternal, "sendgrid from address is required")
	}
	return &SendgridSender{
		api:    sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("Lexora", from),
		logger: logg,
	}, nil
}

// SendTemplate delivers a dynamic-template email to a single recipient.
func (s *SendgridSender) SendTemplate(ctx context.Context, msg TemplateMessage) error {
	if strings.TrimSpace(msg.ToEmail) == "" {
		return errors.New(errors.CodeValidation, "recipient email is required")
	}
	if strings.TrimSpace(msg.TemplateID) == "" {
		return errors.New(errors.CodeValidation, "template id is required")
	}

	message := mail.NewV3Mail()
	message.SetFrom(s.from)
	message.SetTemplateID(msg.TemplateID)

	personalization := mail.NewPersonalization()
	personalization.AddTos(mail.NewEmail(msg.ToName, msg.ToEmail))
	for key, value := range msg.Data {
		personalization.SetDynamicTemplateData(key, value)
	}
	message.AddPersonalizations(personalization)

	resp, err := s.api.SendWithContext(ctx, message)
	if err != nil {
		return errors.Wrap(errors.CodeDependency, err, "sendgrid send failed")
	}
	if resp.StatusCode >= 400 {
		return errors.New(errors.CodeDependency, fmt.Sprintf("sendgrid send failed with status %d", resp.StatusCode))
	}

	if s.logger != nil {
		s.logger.Debug(ctx, fmt.Sprintf("sendgrid email delivered (template %s)", msg.TemplateID))
	}
	return nil
}
