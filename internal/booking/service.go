// Package booking implements the appointment lifecycle: create, cancel,
// complete and delete, plus administrator operations on the blackout
// registry.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/kmvit/booking-bot/internal/events"
	"github.com/kmvit/booking-bot/internal/metrics"
	"github.com/kmvit/booking-bot/internal/model"
)

// ErrSlotTaken is returned by Create in strict mode when the requested
// slot is no longer available.
var ErrSlotTaken = errors.New("slot is no longer available")

// Repository provides appointment storage operations.
type Repository interface {
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	GetAppointment(ctx context.Context, id int64) (*model.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id int64, from, to string) (bool, error)
	DeleteAppointment(ctx context.Context, id int64) (bool, error)
	ListUpcoming(ctx context.Context, clientID int64, from time.Time) ([]model.Appointment, error)
}

// BlackoutRepository provides blackout registry operations.
type BlackoutRepository interface {
	SetBlackout(ctx context.Context, date time.Time, slot string, isWeekend bool) error
	RemoveBlackout(ctx context.Context, date time.Time, slot string) (bool, error)
	ListBlackouts(ctx context.Context, date *time.Time) ([]model.BlackoutSlot, error)
	ListRemovableBlackouts(ctx context.Context, date *time.Time) ([]model.BlackoutSlot, error)
}

// AvailabilityChecker re-validates a slot before a strict-mode create.
type AvailabilityChecker interface {
	AvailableSlots(ctx context.Context, date time.Time) ([]string, error)
}

// Invalidator drops cached availability after a mutation. May be nil.
type Invalidator interface {
	Invalidate(ctx context.Context, date time.Time)
}

// EventPublisher publishes lifecycle events. May be nil.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Service is the appointment lifecycle manager.
type Service struct {
	repo         Repository
	blackouts    BlackoutRepository
	availability AvailabilityChecker
	bus          EventPublisher
	cache        Invalidator
	strict       bool
	logger       zerolog.Logger
}

// NewService creates a booking service. When strict is true, Create
// re-validates the slot right before inserting; by default no re-check
// happens between the availability query and the insert, so two
// concurrent flows can book the same slot.
func NewService(
	repo Repository,
	blackouts BlackoutRepository,
	availability AvailabilityChecker,
	bus EventPublisher,
	cache Invalidator,
	strict bool,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:         repo,
		blackouts:    blackouts,
		availability: availability,
		bus:          bus,
		cache:        cache,
		strict:       strict,
		logger:       logger.With().Str("component", "booking").Logger(),
	}
}

// Create books a new scheduled appointment. The caller has already shown
// the slot as available; in the default mode availability is deliberately
// not re-checked here.
func (s *Service) Create(ctx context.Context, clientID, procedureID int64, start time.Time) (*model.Appointment, error) {
	if s.strict {
		available, err := s.availability.AvailableSlots(ctx, start)
		if err != nil {
			return nil, err
		}
		slot := start.Format("15:04")
		taken := true
		for _, a := range available {
			if a == slot {
				taken = false
				break
			}
		}
		if taken {
			return nil, ErrSlotTaken
		}
	}

	appt := &model.Appointment{
		ClientID:    clientID,
		ProcedureID: procedureID,
		Date:        start,
	}
	if err := s.repo.CreateAppointment(ctx, appt); err != nil {
		return nil, err
	}

	// Reload to pick up the joined procedure and client fields.
	if full, err := s.repo.GetAppointment(ctx, appt.ID); err == nil && full != nil {
		appt = full
	}

	metrics.IncAppointmentCreated()
	s.invalidate(ctx, start)
	s.publish(events.AppointmentCreated, appt)

	s.logger.Info().
		Int64("appointment_id", appt.ID).
		Int64("client_id", clientID).
		Time("date", start).
		Msg("appointment created")
	return appt, nil
}

// Cancel moves a scheduled appointment to cancelled. Returns false when
// the appointment does not exist or is not cancellable.
func (s *Service) Cancel(ctx context.Context, id int64) bool {
	return s.transition(ctx, id, model.StatusCancelled, events.AppointmentCancelled)
}

// Complete moves a scheduled appointment to completed.
func (s *Service) Complete(ctx context.Context, id int64) bool {
	return s.transition(ctx, id, model.StatusCompleted, events.AppointmentCompleted)
}

func (s *Service) transition(ctx context.Context, id int64, to, eventType string) bool {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("appointment_id", id).Msg("load appointment")
		return false
	}
	if appt == nil || !model.CanTransition(appt.Status, to) {
		return false
	}

	ok, err := s.repo.UpdateAppointmentStatus(ctx, id, model.StatusScheduled, to)
	if err != nil {
		s.logger.Error().Err(err).Int64("appointment_id", id).Str("to", to).Msg("update status")
		return false
	}
	if !ok {
		return false
	}

	metrics.IncAppointmentStatusChanged(to)
	s.invalidate(ctx, appt.Date)
	appt.Status = to
	s.publish(eventType, appt)
	return true
}

// Delete removes an appointment regardless of status. Administrative
// correction, distinct from cancellation.
func (s *Service) Delete(ctx context.Context, id int64) bool {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("appointment_id", id).Msg("load appointment")
		return false
	}

	ok, err := s.repo.DeleteAppointment(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("appointment_id", id).Msg("delete appointment")
		return false
	}
	if ok && appt != nil {
		s.invalidate(ctx, appt.Date)
		s.publish(events.AppointmentDeleted, appt)
	}
	return ok
}

// ListUpcoming returns scheduled appointments from today on, ascending.
// clientID 0 lists all clients.
func (s *Service) ListUpcoming(ctx context.Context, clientID int64) ([]model.Appointment, error) {
	return s.repo.ListUpcoming(ctx, clientID, time.Now())
}

// SetBlackout disables a slot. Idempotent; a pre-existing pair is
// success. Store failures degrade to false.
func (s *Service) SetBlackout(ctx context.Context, date time.Time, slot string) bool {
	if err := s.blackouts.SetBlackout(ctx, date, slot, false); err != nil {
		s.logger.Error().Err(err).Time("date", date).Str("slot", slot).Msg("set blackout")
		return false
	}
	metrics.IncBlackoutChanged("set")
	s.invalidate(ctx, date)
	return true
}

// RemoveBlackout re-enables a slot; false when absent or on store failure.
func (s *Service) RemoveBlackout(ctx context.Context, date time.Time, slot string) bool {
	ok, err := s.blackouts.RemoveBlackout(ctx, date, slot)
	if err != nil {
		s.logger.Error().Err(err).Time("date", date).Str("slot", slot).Msg("remove blackout")
		return false
	}
	if ok {
		metrics.IncBlackoutChanged("remove")
		s.invalidate(ctx, date)
	}
	return ok
}

// ListBlackouts returns all blackout slots, optionally for one date.
func (s *Service) ListBlackouts(ctx context.Context, date *time.Time) ([]model.BlackoutSlot, error) {
	return s.blackouts.ListBlackouts(ctx, date)
}

// RemovableBlackouts lists only manually added blackouts; weekend rows
// are excluded from per-slot removal.
func (s *Service) RemovableBlackouts(ctx context.Context, date *time.Time) ([]model.BlackoutSlot, error) {
	return s.blackouts.ListRemovableBlackouts(ctx, date)
}

func (s *Service) publish(eventType string, appt *model.Appointment) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishJSON(eventType, appt); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("publish event")
	}
}

func (s *Service) invalidate(ctx context.Context, date time.Time) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, date)
	}
}
