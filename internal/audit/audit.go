package audit

import (
	"context"
	"encoding/json"

	"example.com/calendariko/internal/models"
	"example.com/calendariko/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Recorder appends audit entries. Failures are logged and swallowed; an audit
// write must never undo or fail the operation it records.
type Recorder interface {
	Record(ctx context.Context, entity, entityID, action, actorID string, metadata map[string]interface{})
}

type recorder struct {
	repo repository.Repository
	log  *logrus.Logger
}

// NewRecorder creates an audit recorder backed by the repository
func NewRecorder(repo repository.Repository, log *logrus.Logger) Recorder {
	return &recorder{repo: repo, log: log}
}

// Record writes one append-only audit row
func (r *recorder) Record(ctx context.Context, entity, entityID, action, actorID string, metadata map[string]interface{}) {
	var meta string
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			r.log.WithError(err).Warn("Failed to marshal audit metadata")
		} else {
			meta = string(raw)
		}
	}

	entry := &models.AuditLog{
		ID:       uuid.NewString(),
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		ActorID:  actorID,
		Metadata: meta,
	}

	if err := r.repo.CreateAuditLog(ctx, entry); err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{
			"entity":    entity,
			"entity_id": entityID,
			"action":    action,
		}).Error("Failed to write audit log entry")
	}
}
