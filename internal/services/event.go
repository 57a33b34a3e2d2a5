package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"clique/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	notifier       domain.Notifier
	emailService   domain.EmailService
	publisher      domain.UpdatePublisher
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewEventService(
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	notifier domain.Notifier,
	emailService domain.EmailService,
	publisher domain.UpdatePublisher,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		notifier:       notifier,
		emailService:   emailService,
		publisher:      publisher,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event, invitedIDs, invitedPhones []string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if event.HostID == "" {
		return fmt.Errorf("%w: event host is required", domain.ErrInvalidInput)
	}
	if event.Title == "" {
		return fmt.Errorf("%w: event title is required", domain.ErrInvalidInput)
	}
	if !event.NoEndTime && event.EndTime.Before(event.StartTime) {
		return fmt.Errorf("%w: event end before start", domain.ErrInvalidInput)
	}

	event.CreatedAt = time.Now()
	event.UpdatedAt = time.Now()

	event.InvitedIDs = nil
	for _, id := range invitedIDs {
		if id != event.HostID {
			event.InvitedIDs = append(event.InvitedIDs, id)
		}
	}
	event.InvitedPhones = nil
	for _, raw := range invitedPhones {
		phone, err := domain.NormalizePhone(raw)
		if err != nil {
			return fmt.Errorf("%w: invalid phone number %q", domain.ErrInvalidInput, raw)
		}
		// A phone that already belongs to an account becomes a regular invite.
		if u, err := s.userRepo.GetByPhone(ctx, phone); err == nil {
			if u.ID != event.HostID {
				event.InvitedIDs = append(event.InvitedIDs, u.ID)
			}
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("get user by phone: %w", err)
		}
		event.InvitedPhones = append(event.InvitedPhones, phone)
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	s.publisher.Publish(domain.Update{Kind: domain.UpdateEventUpserted, Event: event})
	s.notifyInvited(ctx, event, event.InvitedIDs)
	return nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID, callerID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	events, err := s.eventRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (s *eventService) ListEventsForUser(ctx context.Context, userID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	events, err := s.eventRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list events for user: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, eventID, callerID string, upd domain.EventUpdate) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.HostID != callerID {
		return nil, domain.ErrForbidden
	}

	updated, err := s.eventRepo.Update(ctx, eventID, upd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}

	s.publisher.Publish(domain.Update{Kind: domain.UpdateEventUpserted, Event: updated})

	// Everyone previously touched by the event hears about edits.
	host := s.displayName(ctx, callerID)
	link := &domain.DeepLink{Route: domain.RouteEventDetail, EventID: updated.ID}
	for _, userID := range updated.Participants() {
		if userID == callerID {
			continue
		}
		s.dispatch(ctx, domain.Notification{
			RecipientID: userID,
			Title:       updated.Title,
			Message:     fmt.Sprintf("%s updated %s", host, updated.Title),
			DeepLink:    link,
		})
	}
	return updated, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if event.HostID != callerID {
		return domain.ErrForbidden
	}
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}

	s.publisher.Publish(domain.Update{Kind: domain.UpdateEventDeleted, EventID: eventID})

	host := s.displayName(ctx, callerID)
	for _, userID := range event.Participants() {
		if userID == callerID {
			continue
		}
		s.dispatch(ctx, domain.Notification{
			RecipientID: userID,
			Title:       event.Title,
			Message:     fmt.Sprintf("%s canceled %s", host, event.Title),
		})
	}
	return nil
}

func (s *eventService) InviteUsers(ctx context.Context, eventID, callerID string, userIDs, phones []string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if event.HostID != callerID {
		return domain.ErrForbidden
	}

	var inviteIDs []string
	for _, id := range userIDs {
		if id != event.HostID {
			inviteIDs = append(inviteIDs, id)
		}
	}
	var invitePhones []string
	for _, raw := range phones {
		phone, err := domain.NormalizePhone(raw)
		if err != nil {
			return fmt.Errorf("%w: invalid phone number %q", domain.ErrInvalidInput, raw)
		}
		if u, err := s.userRepo.GetByPhone(ctx, phone); err == nil {
			if u.ID != event.HostID {
				inviteIDs = append(inviteIDs, u.ID)
			}
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("get user by phone: %w", err)
		}
		invitePhones = append(invitePhones, phone)
	}

	if len(inviteIDs) > 0 {
		if err := s.eventRepo.InviteUsers(ctx, eventID, inviteIDs); err != nil {
			return fmt.Errorf("invite users: %w", err)
		}
	}
	if len(invitePhones) > 0 {
		if err := s.eventRepo.InvitePhones(ctx, eventID, invitePhones); err != nil {
			return fmt.Errorf("invite phones: %w", err)
		}
	}

	if updated, err := s.eventRepo.GetByID(ctx, eventID); err == nil {
		s.publisher.Publish(domain.Update{Kind: domain.UpdateEventUpserted, Event: updated})
	}
	s.notifyInvited(ctx, event, inviteIDs)
	return nil
}

func (s *eventService) RemoveInvitee(ctx context.Context, eventID, callerID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if event.HostID != callerID {
		return domain.ErrForbidden
	}
	if err := s.eventRepo.RemoveInvitee(ctx, eventID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("remove invitee: %w", err)
	}
	if updated, err := s.eventRepo.GetByID(ctx, eventID); err == nil {
		s.publisher.Publish(domain.Update{Kind: domain.UpdateEventUpserted, Event: updated})
	}
	return nil
}

func (s *eventService) RespondToInvite(ctx context.Context, eventID, userID string, action domain.RSVPAction) (*domain.RSVPResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	result, err := s.eventRepo.Respond(ctx, eventID, userID, action)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return nil, domain.ErrNotFound
		case errors.Is(err, domain.ErrPreconditionFailed):
			return nil, domain.ErrPreconditionFailed
		case errors.Is(err, domain.ErrInvalidInput):
			return nil, domain.ErrInvalidInput
		}
		return nil, fmt.Errorf("respond to invite: %w", err)
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		// The transition already committed; report it even if the re-read fails.
		s.logger.Warn("reload event after respond failed", "event_id", eventID, "err", err)
		return result, nil
	}

	s.publisher.Publish(domain.Update{Kind: domain.UpdateEventUpserted, Event: event})

	if event.HostID != "" && event.HostID != userID {
		name := s.displayName(ctx, userID)
		var message string
		switch {
		case action == domain.RSVPAccept && result.From == domain.AttendanceDeclined:
			message = fmt.Sprintf("%s changed their mind and is going to %s", name, event.Title)
		case action == domain.RSVPAccept:
			message = fmt.Sprintf("%s is going to %s", name, event.Title)
		case action == domain.RSVPDecline:
			message = fmt.Sprintf("%s can't make it to %s", name, event.Title)
		case action == domain.RSVPLeave:
			message = fmt.Sprintf("%s left %s", name, event.Title)
		}
		s.dispatch(ctx, domain.Notification{
			RecipientID: event.HostID,
			Title:       event.Title,
			Message:     message,
			DeepLink:    &domain.DeepLink{Route: domain.RouteEventDetail, EventID: event.ID},
		})
	}
	return result, nil
}

func (s *eventService) notifyInvited(ctx context.Context, event *domain.Event, invitedIDs []string) {
	if len(invitedIDs) == 0 {
		return
	}
	host := s.displayName(ctx, event.HostID)
	link := &domain.DeepLink{Route: domain.RouteEventDetail, EventID: event.ID, InviteFlag: true}
	for _, userID := range invitedIDs {
		s.dispatch(ctx, domain.Notification{
			RecipientID: userID,
			Title:       event.Title,
			Message:     fmt.Sprintf("%s invited you to %s", host, event.Title),
			DeepLink:    link,
		})
		s.mailInvitation(ctx, event, host, userID)
	}
}

// mailInvitation supplements the push path with an email when the invitee's
// address is known. Failures are logged and never propagate.
func (s *eventService) mailInvitation(ctx context.Context, event *domain.Event, hostName, userID string) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || u == nil || u.Email == "" {
		return
	}
	name := u.FullName
	if name == "" {
		name = u.Username
	}
	var when string
	if !event.StartTime.IsZero() {
		when = event.StartTime.Format("Mon, 2 Jan 2006 15:04 MST")
	}
	err = s.emailService.SendEventInvitation(ctx, &domain.EventInvitationEmailData{
		Email:       u.Email,
		InviteeName: name,
		HostName:    hostName,
		EventTitle:  event.Title,
		EventTime:   when,
	})
	if err != nil {
		s.logger.Warn("invitation email failed", "recipient", u.Email, "err", err)
	}
}

// dispatch delivers a push notification at most once. Failures are logged and
// never propagate: notifications must not roll back committed state.
func (s *eventService) dispatch(ctx context.Context, n domain.Notification) {
	if err := s.notifier.Send(ctx, n); err != nil {
		s.logger.Warn("notification dispatch failed", "recipient", n.RecipientID, "err", err)
	}
}

func (s *eventService) displayName(ctx context.Context, userID string) string {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return "Someone"
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
