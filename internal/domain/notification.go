package domain

import "context"

// Notification is a push notification addressed to one recipient. RecipientID
// is the provider-side external user id (this app uses the account id).
type Notification struct {
	RecipientID string
	Title       string
	Message     string
	DeepLink    *DeepLink // optional tap destination
}

// Notifier dispatches push notifications. Dispatch is fire-and-forget from the
// callers' point of view: services log failures and never roll back state.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}
