package service

import (
	"context"

	"example.com/calendariko/internal/auth"
	"example.com/calendariko/internal/metrics"
	"example.com/calendariko/internal/models"
	"example.com/calendariko/internal/notification"
	"example.com/calendariko/internal/repository"
	"example.com/calendariko/internal/schedule"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// CreateEvent validates, authorizes and books a new event. The conflict scan
// and the insert run inside one transaction holding the band row lock, so
// two overlapping windows on the same band can never both commit.
func (s *service) CreateEvent(ctx context.Context, identity *auth.Identity, input EventInput) (*models.Event, error) {
	if err := validateEventInput(&input); err != nil {
		return nil, err
	}

	if !auth.CanCreateEvent(identity, input.BandID) {
		metrics.PermissionDenials.Inc()
		return nil, ErrPermissionDenied
	}

	band, err := s.repo.FindBandByID(ctx, input.BandID)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to load band")
	}

	event := &models.Event{
		Model:     models.Model{ID: uuid.NewString()},
		BandID:    input.BandID,
		Type:      input.Type,
		Title:     input.Title,
		Start:     input.Start,
		End:       input.End,
		AllDay:    input.AllDay,
		Status:    input.Status,
		Privacy:   input.Privacy,
		Notes:     input.Notes,
		CreatedBy: identity.ID,
		Cachet:    input.Cachet,
		Acconto:   input.Acconto,
		Spese:     input.Spese,
		Valuta:    input.Valuta,
	}

	err = s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		if err := tx.LockBand(ctx, input.BandID); err != nil {
			return errors.Wrap(err, "failed to lock band")
		}

		candidates, err := tx.FindEventsByBandAndWindow(ctx, input.BandID, input.Start, input.End)
		if err != nil {
			return errors.Wrap(err, "failed to scan for conflicts")
		}
		if conflicts := schedule.FindConflicts(candidates, input.Start, input.End, ""); len(conflicts) > 0 {
			metrics.ConflictsRejected.Inc()
			return &ConflictError{Conflicts: conflicts}
		}

		if err := tx.CreateEvent(ctx, event); err != nil {
			return errors.Wrap(err, "failed to create event")
		}

		if err := s.applyVenue(ctx, tx, event.ID, input.VenueID, input.VenueName, input.VenueAddress, input.VenueCity, input.VenueCountry); err != nil {
			return err
		}

		if input.TagIDs != nil {
			if err := tx.ReplaceEventTags(ctx, event.ID, *input.TagIDs); err != nil {
				return errors.Wrap(err, "failed to set event tags")
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.EventsCreated.Inc()
	s.log.WithFields(logrus.Fields{
		"event_id": event.ID,
		"band_id":  event.BandID,
		"title":    event.Title,
	}).Info("Event created")

	s.audit.Record(ctx, "event", event.ID, "create", identity.ID, map[string]interface{}{
		"band_id": event.BandID,
		"title":   event.Title,
		"start":   event.Start,
		"end":     event.End,
	})

	if loaded, err := s.repo.FindEventByID(ctx, event.ID); err == nil {
		event = loaded
	}

	if err := s.searcher.IndexEvent(ctx, event); err != nil {
		s.log.WithError(err).WithField("event_id", event.ID).Warn("Failed to index event")
	}

	// Admin-created events are announced to the band's manager. Delivery is
	// best-effort and never affects the create outcome.
	if identity.IsAdmin {
		s.notifyManager(ctx, event, band.Name, false)
	}

	s.redactForViewer(identity, event)
	return event, nil
}

// UpdateEvent applies a partial patch to an existing event. The conflict scan
// is only rerun when the effective window actually moved, and the event
// itself is excluded so it never collides with its own slot.
func (s *service) UpdateEvent(ctx context.Context, identity *auth.Identity, eventID string, patch EventPatch) (*models.Event, error) {
	existing, err := s.repo.FindEventByID(ctx, eventID)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to load event")
	}

	if !auth.CanEditEvent(identity, existing) {
		metrics.PermissionDenials.Inc()
		return nil, ErrPermissionDenied
	}

	if patch.Type != nil && !validEventType(*patch.Type) {
		return nil, NewValidationError("unknown event type %q", *patch.Type)
	}
	if patch.Status != nil && !validEventStatus(*patch.Status) {
		return nil, NewValidationError("unknown event status %q", *patch.Status)
	}
	if patch.Privacy != nil && !validEventPrivacy(*patch.Privacy) {
		return nil, NewValidationError("unknown event privacy %q", *patch.Privacy)
	}
	if patch.Title != nil && *patch.Title == "" {
		return nil, NewValidationError("event title is required")
	}

	var updated models.Event

	err = s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		if err := tx.LockBand(ctx, existing.BandID); err != nil {
			return errors.Wrap(err, "failed to lock band")
		}

		// The pre-lock snapshot may be stale: another writer can commit a
		// window move between our read and the lock. Reread under the lock
		// and resolve the patch against the committed row, otherwise a
		// title-only patch would write the old window back.
		current, err := tx.FindEventByID(ctx, existing.ID)
		if err != nil {
			if isRecordNotFound(err) {
				return ErrNotFound
			}
			return errors.Wrap(err, "failed to reload event")
		}

		start, end := current.Start, current.End
		if patch.Start != nil {
			start = *patch.Start
		}
		if patch.End != nil {
			end = *patch.End
		}
		if !end.After(start) {
			return NewValidationError("event end must be after start")
		}

		windowChanged := !start.Equal(current.Start) || !end.Equal(current.End)

		updated = *current
		updated.Start = start
		updated.End = end
		if patch.Type != nil {
			updated.Type = *patch.Type
		}
		if patch.Title != nil {
			updated.Title = *patch.Title
		}
		if patch.AllDay != nil {
			updated.AllDay = *patch.AllDay
		}
		if patch.Status != nil {
			updated.Status = *patch.Status
		}
		if patch.Privacy != nil {
			updated.Privacy = *patch.Privacy
		}
		if patch.Notes != nil {
			updated.Notes = *patch.Notes
		}
		if patch.Cachet != nil {
			updated.Cachet = patch.Cachet
		}
		if patch.Acconto != nil {
			updated.Acconto = patch.Acconto
		}
		if patch.Spese != nil {
			updated.Spese = patch.Spese
		}
		if patch.Valuta != nil {
			updated.Valuta = patch.Valuta
		}
		updated.UpdatedBy = &identity.ID

		if windowChanged {
			candidates, err := tx.FindEventsByBandAndWindow(ctx, current.BandID, start, end)
			if err != nil {
				return errors.Wrap(err, "failed to scan for conflicts")
			}
			if conflicts := schedule.FindConflicts(candidates, start, end, current.ID); len(conflicts) > 0 {
				metrics.ConflictsRejected.Inc()
				return &ConflictError{Conflicts: conflicts}
			}
		}

		if err := tx.UpdateEvent(ctx, &updated); err != nil {
			return errors.Wrap(err, "failed to update event")
		}

		if patch.VenueName != nil {
			if *patch.VenueName == "" {
				// Clearing the venue name removes the association
				if err := tx.DeleteEventVenue(ctx, existing.ID); err != nil {
					return errors.Wrap(err, "failed to clear event venue")
				}
			} else {
				venueID := ""
				if patch.VenueID != nil {
					venueID = *patch.VenueID
				}
				address, city, country := "", "", ""
				if patch.VenueAddress != nil {
					address = *patch.VenueAddress
				}
				if patch.VenueCity != nil {
					city = *patch.VenueCity
				}
				if patch.VenueCountry != nil {
					country = *patch.VenueCountry
				}
				if err := s.applyVenue(ctx, tx, existing.ID, venueID, *patch.VenueName, address, city, country); err != nil {
					return err
				}
			}
		} else if patch.VenueID != nil && *patch.VenueID != "" {
			if err := s.applyVenue(ctx, tx, existing.ID, *patch.VenueID, "", "", "", ""); err != nil {
				return err
			}
		}

		if patch.TagIDs != nil {
			if err := tx.ReplaceEventTags(ctx, existing.ID, *patch.TagIDs); err != nil {
				return errors.Wrap(err, "failed to replace event tags")
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.EventsUpdated.Inc()
	s.log.WithFields(logrus.Fields{
		"event_id": existing.ID,
		"band_id":  existing.BandID,
	}).Info("Event updated")

	s.audit.Record(ctx, "event", existing.ID, "update", identity.ID, map[string]interface{}{
		"band_id": existing.BandID,
		"start":   updated.Start,
		"end":     updated.End,
	})

	result := &updated
	if loaded, err := s.repo.FindEventByID(ctx, existing.ID); err == nil {
		result = loaded
	}

	if err := s.searcher.IndexEvent(ctx, result); err != nil {
		s.log.WithError(err).WithField("event_id", result.ID).Warn("Failed to index event")
	}

	if identity.IsAdmin {
		bandName := ""
		if result.Band != nil {
			bandName = result.Band.Name
		}
		s.notifyManager(ctx, result, bandName, true)
	}

	s.redactForViewer(identity, result)
	return result, nil
}

// DeleteEvent removes an event together with its venue link, tag links and
// attachments
func (s *service) DeleteEvent(ctx context.Context, identity *auth.Identity, eventID string) error {
	existing, err := s.repo.FindEventByID(ctx, eventID)
	if err != nil {
		if isRecordNotFound(err) {
			return ErrNotFound
		}
		return errors.Wrap(err, "failed to load event")
	}

	if !auth.CanDeleteEvent(identity, existing) {
		metrics.PermissionDenials.Inc()
		return ErrPermissionDenied
	}

	err = s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		return tx.DeleteEvent(ctx, existing.ID)
	})
	if err != nil {
		return errors.Wrap(err, "failed to delete event")
	}

	metrics.EventsDeleted.Inc()
	s.log.WithFields(logrus.Fields{
		"event_id": existing.ID,
		"band_id":  existing.BandID,
	}).Info("Event deleted")

	s.audit.Record(ctx, "event", existing.ID, "delete", identity.ID, map[string]interface{}{
		"band_id": existing.BandID,
		"title":   existing.Title,
	})

	if err := s.searcher.RemoveEvent(ctx, existing.ID); err != nil {
		s.log.WithError(err).WithField("event_id", existing.ID).Warn("Failed to remove event from index")
	}

	return nil
}

// GetEvent returns one event with financials redacted for viewers without
// financial rights
func (s *service) GetEvent(ctx context.Context, identity *auth.Identity, eventID string) (*models.Event, error) {
	event, err := s.repo.FindEventByID(ctx, eventID)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to load event")
	}

	if !auth.CanViewBand(identity, event.BandID) {
		metrics.PermissionDenials.Inc()
		return nil, ErrPermissionDenied
	}

	s.redactForViewer(identity, event)
	return event, nil
}

// ListEvents returns the calendar view, scoped to the bands the identity may
// see. Financial redaction is evaluated independently per event.
func (s *service) ListEvents(ctx context.Context, identity *auth.Identity, filters EventFilters) ([]*models.Event, error) {
	bandIDs := filters.BandIDs
	if !auth.CanViewAllBands(identity) {
		visible := identity.BandIDs()
		if len(visible) == 0 {
			return []*models.Event{}, nil
		}
		if len(bandIDs) == 0 {
			bandIDs = visible
		} else {
			bandIDs = intersect(bandIDs, visible)
			if len(bandIDs) == 0 {
				return []*models.Event{}, nil
			}
		}
	}

	events, err := s.repo.ListEvents(ctx, repository.EventFilter{
		BandIDs:  bandIDs,
		Types:    filters.Types,
		Statuses: filters.Statuses,
		From:     filters.From,
		To:       filters.To,
		Search:   filters.Search,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list events")
	}

	for _, event := range events {
		s.redactForViewer(identity, event)
	}
	return events, nil
}

// applyVenue resolves or creates the venue and upserts the event's single
// venue association
func (s *service) applyVenue(ctx context.Context, tx repository.Repository, eventID, venueID, name, address, city, country string) error {
	if venueID != "" {
		if _, err := tx.FindVenueByID(ctx, venueID); err != nil {
			if isRecordNotFound(err) {
				return ErrNotFound
			}
			return errors.Wrap(err, "failed to load venue")
		}
		return errors.Wrap(tx.UpsertEventVenue(ctx, eventID, venueID), "failed to link venue")
	}

	if name == "" {
		return nil
	}

	venue := &models.Venue{
		Model:   models.Model{ID: uuid.NewString()},
		Name:    name,
		Address: address,
		City:    city,
		Country: country,
	}
	if err := tx.CreateVenue(ctx, venue); err != nil {
		return errors.Wrap(err, "failed to create venue")
	}
	return errors.Wrap(tx.UpsertEventVenue(ctx, eventID, venue.ID), "failed to link venue")
}

// notifyManager fires the manager email for an admin-created or admin-updated
// event. A band without a manager is skipped with a log line only.
func (s *service) notifyManager(ctx context.Context, event *models.Event, bandName string, isUpdate bool) {
	manager, err := s.repo.FindBandManager(ctx, event.BandID)
	if err != nil {
		if isRecordNotFound(err) {
			s.log.WithField("band_id", event.BandID).Info("Band has no manager, skipping notification")
		} else {
			s.log.WithError(err).WithField("band_id", event.BandID).Warn("Failed to look up band manager")
		}
		return
	}
	if manager.User == nil {
		s.log.WithField("band_id", event.BandID).Warn("Band manager has no user record, skipping notification")
		return
	}

	venueName := ""
	if event.Venue != nil && event.Venue.Venue != nil {
		venueName = event.Venue.Venue.Name
	}

	s.notifier.Notify(ctx, notification.EventPayload{
		To:          manager.User.Email,
		ToName:      manager.User.Name,
		EventID:     event.ID,
		EventTitle:  event.Title,
		EventType:   string(event.Type),
		EventStatus: string(event.Status),
		EventStart:  notification.FormatInstant(event.Start),
		EventEnd:    notification.FormatInstant(event.End),
		Venue:       venueName,
		Notes:       event.Notes,
		BandName:    bandName,
		IsUpdate:    isUpdate,
	})
}

// redactForViewer clears financial fields the identity may not see
func (s *service) redactForViewer(identity *auth.Identity, event *models.Event) {
	if !auth.CanViewEventFinancials(identity, event) {
		event.RedactFinancials()
	}
}

func validateEventInput(input *EventInput) error {
	if input.BandID == "" {
		return NewValidationError("band id is required")
	}
	if input.Title == "" {
		return NewValidationError("event title is required")
	}
	if input.Type == "" {
		return NewValidationError("event type is required")
	}
	if !validEventType(input.Type) {
		return NewValidationError("unknown event type %q", input.Type)
	}
	if input.Start.IsZero() || input.End.IsZero() {
		return NewValidationError("event start and end are required")
	}
	if !input.End.After(input.Start) {
		return NewValidationError("event end must be after start")
	}
	if input.Status == "" {
		input.Status = models.EventStatusTentative
	}
	if !validEventStatus(input.Status) {
		return NewValidationError("unknown event status %q", input.Status)
	}
	if input.Privacy == "" {
		input.Privacy = models.PrivacyBand
	}
	if !validEventPrivacy(input.Privacy) {
		return NewValidationError("unknown event privacy %q", input.Privacy)
	}
	return nil
}

func validEventType(t models.EventType) bool {
	switch t {
	case models.EventTypeConcert, models.EventTypeUnavailable, models.EventTypeAgencyBlock:
		return true
	}
	return false
}

func validEventStatus(st models.EventStatus) bool {
	switch st {
	case models.EventStatusTentative, models.EventStatusOption, models.EventStatusConfirmed, models.EventStatusCancelled:
		return true
	}
	return false
}

func validEventPrivacy(p models.EventPrivacy) bool {
	switch p {
	case models.PrivacyBand, models.PrivacyAgency:
		return true
	}
	return false
}

// intersect keeps the requested ids that are also visible
func intersect(requested, visible []string) []string {
	allowed := make(map[string]struct{}, len(visible))
	for _, id := range visible {
		allowed[id] = struct{}{}
	}
	var out []string
	for _, id := range requested {
		if _, ok := allowed[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
