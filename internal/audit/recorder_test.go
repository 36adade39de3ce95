package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securevault-systems/vault-core/internal/models"
)

type memStore struct {
	entries []*models.AuditEntry
	fail    bool
}

func (s *memStore) AppendAudit(ctx context.Context, entry *models.AuditEntry) error {
	if s.fail {
		return errors.New("store down")
	}
	s.entries = append(s.entries, entry)
	return nil
}

type memPublisher struct {
	subjects []string
	payloads [][]byte
}

func (p *memPublisher) Publish(subject string, data []byte) error {
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

func TestRecordSignsEntries(t *testing.T) {
	store := &memStore{}
	recorder := NewRecorder("secret-key", store, nil)

	entry := recorder.Record(context.Background(), models.AuditInfo, "alice", "Successful login")
	require.Len(t, store.entries, 1)
	assert.NotEmpty(t, entry.Signature)
	assert.True(t, recorder.Verify(entry))
}

func TestVerifyDetectsTampering(t *testing.T) {
	recorder := NewRecorder("secret-key", &memStore{}, nil)
	entry := recorder.Record(context.Background(), models.AuditWarn, "alice", "Failed login attempt")

	tampered := *entry
	tampered.Message = "Successful login"
	assert.False(t, recorder.Verify(&tampered))

	reActored := *entry
	reActored.Actor = "mallory"
	assert.False(t, recorder.Verify(&reActored))
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	signer := NewRecorder("secret-one", &memStore{}, nil)
	verifier := NewRecorder("secret-two", &memStore{}, nil)

	entry := signer.Record(context.Background(), models.AuditInfo, "alice", "anything")
	assert.False(t, verifier.Verify(entry))
}

func TestAlertsMirrorToPublisher(t *testing.T) {
	store := &memStore{}
	pub := &memPublisher{}
	recorder := NewRecorderWithPublisher("secret-key", store, nil, pub, "vault.audit.alert")

	recorder.Record(context.Background(), models.AuditInfo, "alice", "routine")
	recorder.Record(context.Background(), models.AuditAlert, "mallory", "HONEYPOT TRIGGERED from 203.0.113.7")

	require.Len(t, pub.subjects, 1)
	assert.Equal(t, "vault.audit.alert", pub.subjects[0])

	var published models.AuditEntry
	require.NoError(t, json.Unmarshal(pub.payloads[0], &published))
	assert.Equal(t, models.AuditAlert, published.Kind)
	assert.Equal(t, "mallory", published.Actor)
}

func TestStoreFailureDoesNotPanicOrBlock(t *testing.T) {
	recorder := NewRecorder("secret-key", &memStore{fail: true}, nil)
	entry := recorder.Record(context.Background(), models.AuditInfo, "alice", "anything")
	assert.NotNil(t, entry)
}
