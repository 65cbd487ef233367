package logs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soclite/internal/correlation"
	"soclite/internal/errs"
)

type fakeRecordStore struct {
	inserted []*Record
	failWith error
}

func (f *fakeRecordStore) Insert(_ context.Context, rec *Record) error {
	if f.failWith != nil {
		return f.failWith
	}
	rec.ID = int64(len(f.inserted) + 1)
	f.inserted = append(f.inserted, rec)
	return nil
}

type fakeEngine struct {
	seen     []correlation.Event
	failWith error
}

func (f *fakeEngine) Evaluate(_ context.Context, ev correlation.Event) error {
	f.seen = append(f.seen, ev)
	return f.failWith
}

type fakeQueue struct {
	msgs []struct{ Subject, Body, Recipient string }
}

func (f *fakeQueue) Enqueue(subject, body, recipient string) {
	f.msgs = append(f.msgs, struct{ Subject, Body, Recipient string }{subject, body, recipient})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, nil))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func payloadFromJSON(t *testing.T, raw string) *Payload {
	t.Helper()
	var p Payload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return &p
}

const sampleAlert = `{
	"id": "1580123456.12345",
	"timestamp": "2026-03-01T12:00:00Z",
	"rule": {
		"level": 5,
		"description": "sshd: authentication failed",
		"id": "5716",
		"mitre": {"id": ["T1110"], "tactic": ["Credential Access"], "technique": ["Brute Force"]}
	},
	"agent": {"id": "001", "name": "web-01"},
	"manager": {"name": "soc-manager"},
	"full_log": "sshd[123]: Failed password for root",
	"location": "/var/log/auth.log",
	"data": {"srcuser": "root", "tty": "pts/0"}
}`

func TestIngestPersistsAndCorrelates(t *testing.T) {
	store := &fakeRecordStore{}
	engine := &fakeEngine{}
	in := NewIngestor(store, engine, &fakeQueue{}, "soc@x.com", quietLogger())

	rec, err := in.Ingest(context.Background(), payloadFromJSON(t, sampleAlert))
	require.NoError(t, err)

	assert.Equal(t, "1580123456.12345", rec.EventID)
	assert.Equal(t, 5, rec.RuleLevel)
	assert.Equal(t, "001", rec.AgentID)
	assert.Equal(t, "T1110", rec.MitreIDs)
	assert.Equal(t, "root", rec.SrcUser)
	require.Len(t, store.inserted, 1)

	require.Len(t, engine.seen, 1)
	assert.Equal(t, rec.EventID, engine.seen[0].EventID)
	assert.Equal(t, rec.FullLog, engine.seen[0].FullLog)
}

func TestIngestRejectsMissingRequiredFields(t *testing.T) {
	in := NewIngestor(&fakeRecordStore{}, &fakeEngine{}, &fakeQueue{}, "soc@x.com", quietLogger())
	ctx := context.Background()

	var ve *errs.ValidationError
	_, err := in.Ingest(ctx, &Payload{FullLog: "text"})
	require.ErrorAs(t, err, &ve)

	_, err = in.Ingest(ctx, &Payload{ID: "E1"})
	require.ErrorAs(t, err, &ve)
}

func TestHighSeverityTriggersDirectNotification(t *testing.T) {
	queue := &fakeQueue{}
	in := NewIngestor(&fakeRecordStore{}, &fakeEngine{}, queue, "soc@x.com", quietLogger())

	p := payloadFromJSON(t, sampleAlert)
	p.Rule.Level = 12
	_, err := in.Ingest(context.Background(), p)
	require.NoError(t, err)

	require.Len(t, queue.msgs, 1)
	assert.Contains(t, queue.msgs[0].Subject, "High Severity Alert")
	assert.Equal(t, "soc@x.com", queue.msgs[0].Recipient)
	assert.Contains(t, queue.msgs[0].Body, "Failed password for root")
}

func TestBelowThresholdSeverityDoesNotNotify(t *testing.T) {
	queue := &fakeQueue{}
	in := NewIngestor(&fakeRecordStore{}, &fakeEngine{}, queue, "soc@x.com", quietLogger())

	_, err := in.Ingest(context.Background(), payloadFromJSON(t, sampleAlert))
	require.NoError(t, err)
	assert.Empty(t, queue.msgs)
}

func TestCorrelationFailureDoesNotFailIngest(t *testing.T) {
	engine := &fakeEngine{failWith: errors.New("db gone")}
	in := NewIngestor(&fakeRecordStore{}, engine, &fakeQueue{}, "soc@x.com", quietLogger())

	_, err := in.Ingest(context.Background(), payloadFromJSON(t, sampleAlert))
	assert.NoError(t, err)
}

func TestStoreFailureSurfaces(t *testing.T) {
	store := &fakeRecordStore{failWith: errors.New("insert failed")}
	in := NewIngestor(store, &fakeEngine{}, &fakeQueue{}, "soc@x.com", quietLogger())

	_, err := in.Ingest(context.Background(), payloadFromJSON(t, sampleAlert))
	assert.Error(t, err)
}
