package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/sakif/shared-calendar/internal/access"
	"github.com/sakif/shared-calendar/internal/apperror"
	"github.com/sakif/shared-calendar/internal/membership"
	"github.com/sakif/shared-calendar/internal/model"
	"github.com/sakif/shared-calendar/internal/repository"
)

const MaxEventTitleLength = 200

// EventInput is the caller-editable part of an event.
type EventInput struct {
	Title       string
	Description string
	Address     string
	Start       time.Time
	End         time.Time
	Status      model.EventStatus
}

// EventService enforces who may create and edit events and records
// reactions.
type EventService struct {
	store    repository.Store
	sessions Sessions
	logger   *slog.Logger
}

func NewEventService(store repository.Store, sessions Sessions, logger *slog.Logger) *EventService {
	return &EventService{
		store:    store,
		sessions: sessions,
		logger:   logger,
	}
}

// CreateEvent adds an event owned by the caller. The caller must be a
// member with a role above VIEWER.
func (s *EventService) CreateEvent(ctx context.Context, token, tag string, in EventInput) (*model.Event, error) {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	var event *model.Event
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		acc, err := membership.ForStore(tx).Resolve(ctx, user, tag)
		if err != nil {
			return err
		}
		if err := requireEditor(acc, "create events"); err != nil {
			return err
		}

		in, err := normalizeEventInput(in)
		if err != nil {
			return err
		}

		event = &model.Event{
			CalendarID:  acc.Calendar.ID,
			UserID:      user.ID,
			Title:       in.Title,
			Description: in.Description,
			Address:     in.Address,
			Start:       in.Start,
			End:         in.End,
			Status:      in.Status,
		}
		return tx.Events().Create(ctx, event)
	})
	if err != nil {
		return nil, fmt.Errorf("creating event in %s: %w", tag, err)
	}

	s.logger.Info("event created",
		slog.String("id", event.ID),
		slog.String("tag", tag),
		slog.String("owner", user.ID),
	)
	return event, nil
}

// ManageEvent overwrites an event's details. Only the event's owner may do
// this, and only while still holding a role above VIEWER. The id and the
// accumulated rating are kept.
func (s *EventService) ManageEvent(ctx context.Context, token, tag, eventID string, in EventInput) (*model.Event, error) {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	var event *model.Event
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		acc, err := membership.ForStore(tx).Resolve(ctx, user, tag)
		if err != nil {
			return err
		}
		if err := requireEditor(acc, "manage events"); err != nil {
			return err
		}

		event, err = eventInCalendar(ctx, tx, acc.Calendar, eventID)
		if err != nil {
			return err
		}
		if event.UserID != user.ID {
			return apperror.WrongUser("only the user who created this event can change it")
		}

		in, err := normalizeEventInput(in)
		if err != nil {
			return err
		}
		event.Title = in.Title
		event.Description = in.Description
		event.Address = in.Address
		event.Start = in.Start
		event.End = in.End
		event.Status = in.Status
		return tx.Events().Update(ctx, event)
	})
	if err != nil {
		return nil, fmt.Errorf("managing event %s: %w", eventID, err)
	}

	s.logger.Info("event updated",
		slog.String("id", eventID),
		slog.String("tag", tag),
	)
	return event, nil
}

// React records the caller's score for an event and recomputes the event's
// average over every reaction it has. Any user who can see the calendar may
// react. Resubmitting overwrites the caller's previous score.
func (s *EventService) React(ctx context.Context, token, tag, eventID string, score float64) (float64, error) {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, apperror.BadRequest("score", "score must be a finite number")
	}

	var average float64
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		acc, err := membership.ForStore(tx).Resolve(ctx, user, tag)
		if err != nil {
			return err
		}

		event, err := eventInCalendar(ctx, tx, acc.Calendar, eventID)
		if err != nil {
			return err
		}

		existing, err := tx.Reactions().Get(ctx, user.ID, event.ID)
		switch {
		case err == nil:
			existing.Score = score
			err = tx.Reactions().Update(ctx, existing)
		case errors.Is(err, apperror.ErrNotFound):
			err = tx.Reactions().Create(ctx, &model.Reaction{
				EventID: event.ID,
				UserID:  user.ID,
				Score:   score,
			})
		}
		if err != nil {
			return err
		}

		reactions, err := tx.Reactions().ListByEvent(ctx, event.ID)
		if err != nil {
			return err
		}
		average = meanScore(reactions)
		event.AverageRating = average
		return tx.Events().Update(ctx, event)
	})
	if err != nil {
		return 0, fmt.Errorf("reacting to event %s: %w", eventID, err)
	}

	s.logger.Info("reaction recorded",
		slog.String("event", eventID),
		slog.String("user", user.ID),
		slog.Float64("score", score),
		slog.Float64("average", average),
	)
	return score, nil
}

// requireEditor gates event writes: a public non-member may only view and
// VIEWER members may not write.
func requireEditor(acc *membership.Access, action string) error {
	if !acc.Member() {
		return apperror.InsufficientRights(fmt.Sprintf(viewOnly, action))
	}
	if !acc.Role.Outranks(access.Viewer) {
		return apperror.InsufficientRights(fmt.Sprintf("viewers can't %s", action))
	}
	return nil
}

// eventInCalendar loads an event and hides events of other calendars
// behind EventNotFound.
func eventInCalendar(ctx context.Context, tx repository.Store, cal *model.Calendar, eventID string) (*model.Event, error) {
	event, err := tx.Events().GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.CalendarID != cal.ID {
		return nil, apperror.EventNotFound(eventID)
	}
	return event, nil
}

func normalizeEventInput(in EventInput) (EventInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Address = strings.TrimSpace(in.Address)

	if in.Title == "" {
		return in, apperror.ValidationFailed("title", "event title is required")
	}
	if len(in.Title) > MaxEventTitleLength {
		return in, apperror.ValidationFailed("title",
			fmt.Sprintf("event title must be %d characters or less", MaxEventTitleLength))
	}
	if in.Start.IsZero() {
		return in, apperror.ValidationFailed("start", "event start is required")
	}
	if in.End.IsZero() {
		in.End = in.Start
	}
	in.Start = in.Start.UTC()
	in.End = in.End.UTC()
	if in.End.Before(in.Start) {
		return in, apperror.ValidationFailed("end", "event cannot end before it starts")
	}
	if in.Status == "" {
		in.Status = model.EventActive
	}
	return in, nil
}

// meanScore is the arithmetic mean of every score. An event with no
// reactions averages 0.
func meanScore(reactions []model.Reaction) float64 {
	if len(reactions) == 0 {
		return 0
	}
	var sum float64
	for _, r := range reactions {
		sum += r.Score
	}
	return sum / float64(len(reactions))
}
