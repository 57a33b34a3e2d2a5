package domain

import "context"

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// WelcomeMessageEmailData holds data for the welcome email.
type WelcomeMessageEmailData struct {
	Email    string
	FullName string
	Username string
}

// EventInvitationEmailData holds data for an event invitation email.
type EventInvitationEmailData struct {
	Email       string
	InviteeName string
	HostName    string
	EventTitle  string
	EventTime   string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendWelcomeMessage(ctx context.Context, data *WelcomeMessageEmailData) error
	// SendEventInvitation mails an invitee whose address is known. Callers treat
	// failures as fire-and-forget alongside the push path.
	SendEventInvitation(ctx context.Context, data *EventInvitationEmailData) error
}
