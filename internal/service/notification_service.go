package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
	"github.com/SadmanHussainChowdhury/community-complaint-api/pkg/mailer"
)

const statusUpdateBody = `Hello {{.name}},

The status of your complaint "{{.title}}" changed from {{.oldStatus}} to {{.newStatus}}.

View it at {{.link}}
`

const assignmentNoticeBody = `Hello {{.name}},

A complaint has been assigned to you.

{{.title}}
{{.description}}
{{if .dueDate}}
Due: {{.dueDate}}
{{end}}
View it at {{.link}}
`

// NotificationService renders complaint notices and hands them to a mail sender.
type NotificationService struct {
	templates *mailer.Templates
	sender    mailer.Sender
	logger    *zap.Logger
}

// NewNotificationService registers the complaint templates on top of sender.
func NewNotificationService(sender mailer.Sender, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	templates := mailer.NewTemplates().
		MustRegister(string(models.TemplateStatusUpdate), `Complaint "{{.title}}" is now {{.newStatus}}`, statusUpdateBody).
		MustRegister(string(models.TemplateAssignmentNotice), `Assigned to you: {{.title}}`, assignmentNoticeBody)
	return &NotificationService{templates: templates, sender: sender, logger: logger}
}

// Send renders the template kind for address and delivers it.
func (s *NotificationService) Send(ctx context.Context, address string, kind models.NotificationTemplate, data map[string]any) error {
	msg, err := s.templates.Render(string(kind), address, data)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return err
	}
	s.logger.Debug("notification sent", zap.String("template", string(kind)), zap.String("to", address))
	return nil
}
