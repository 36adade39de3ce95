package audit

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/securevault-systems/vault-core/internal/logging"
	"github.com/securevault-systems/vault-core/internal/models"
)

// Store is the slice of the repository the recorder writes through.
type Store interface {
	AppendAudit(ctx context.Context, entry *models.AuditEntry) error
}

// Publisher mirrors ALERT entries to a message bus for downstream responders.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Recorder appends HMAC-signed audit entries. Every mutating operation in
// the core appends exactly one entry; recording failures are logged but
// never fail the calling operation.
type Recorder struct {
	secret    []byte
	store     Store
	publisher Publisher
	subject   string
	logger    *logging.Logger
}

func NewRecorder(secret string, store Store, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.Default()
	}
	return &Recorder{
		secret: []byte(secret),
		store:  store,
		logger: logger,
	}
}

// NewRecorderWithPublisher additionally mirrors ALERT entries to subject.
func NewRecorderWithPublisher(secret string, store Store, logger *logging.Logger, publisher Publisher, subject string) *Recorder {
	r := NewRecorder(secret, store, logger)
	r.publisher = publisher
	r.subject = subject
	return r
}

// Record appends one entry of the given kind and returns it.
func (r *Recorder) Record(ctx context.Context, kind models.AuditKind, actor, message string) *models.AuditEntry {
	entry := &models.AuditEntry{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		Message:   message,
		Actor:     actor,
	}
	entry.Signature = r.sign(entry)

	if err := r.store.AppendAudit(ctx, entry); err != nil {
		r.logger.ErrorContext(ctx, "audit append failed", logging.Error(err), "kind", string(kind))
	}

	if kind == models.AuditAlert && r.publisher != nil {
		data, err := json.Marshal(entry)
		if err == nil {
			err = r.publisher.Publish(r.subject, data)
		}
		if err != nil {
			r.logger.WarnContext(ctx, "alert publish failed", logging.Error(err))
		}
	}

	return entry
}

func (r *Recorder) sign(entry *models.AuditEntry) string {
	data := []byte(entry.ID + entry.Timestamp.Format(time.RFC3339Nano) + string(entry.Kind) + entry.Actor + entry.Message)
	h := hmac.New(sha256.New, r.secret)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify reports whether the entry's signature matches its contents.
func (r *Recorder) Verify(entry *models.AuditEntry) bool {
	return hmac.Equal([]byte(r.sign(entry)), []byte(entry.Signature))
}
