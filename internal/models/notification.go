package models

// NotificationTemplate names the message templates known to the notification service.
type NotificationTemplate string

const (
	TemplateStatusUpdate     NotificationTemplate = "status-update"
	TemplateAssignmentNotice NotificationTemplate = "assignment-notice"
)
