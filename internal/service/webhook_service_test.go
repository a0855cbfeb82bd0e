package service

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"jurisync/internal/domain/entity"
)

type fakeWebhookRepo struct {
	hooks []*entity.ClientWebhook
}

func (f *fakeWebhookRepo) FindActive(_ []int64) ([]*entity.ClientWebhook, error) {
	return f.hooks, nil
}

func (f *fakeWebhookRepo) FindByID(id int64) (*entity.ClientWebhook, error) {
	for _, h := range f.hooks {
		if h.ID == id {
			return h, nil
		}
	}
	return nil, nil
}

func (f *fakeWebhookRepo) FindByClient(clientID int64) ([]*entity.ClientWebhook, error) {
	var out []*entity.ClientWebhook
	for _, h := range f.hooks {
		if h.ClientSystemID == clientID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeWebhookRepo) Save(hook *entity.ClientWebhook) error {
	f.hooks = append(f.hooks, hook)
	return nil
}

func (f *fakeWebhookRepo) Delete(hook *entity.ClientWebhook) error {
	for i, h := range f.hooks {
		if h.ID == hook.ID {
			f.hooks = append(f.hooks[:i], f.hooks[i+1:]...)
			return nil
		}
	}
	return nil
}

func eventsJSON(t *testing.T, events ...string) datatypes.JSON {
	t.Helper()
	data, err := json.Marshal(events)
	require.NoError(t, err)
	return data
}

func TestClassifyEvent(t *testing.T) {
	assert.Equal(t, entity.CategoryProcess, ClassifyEvent("process.status_changed"))
	assert.Equal(t, entity.CategoryDistribution, ClassifyEvent("distribution.received"))
	assert.Equal(t, entity.CategoryPublication, ClassifyEvent("publication.matched"))
	assert.Equal(t, entity.CategorySync, ClassifyEvent("sync.completed"))
	assert.Equal(t, entity.CategoryOther, ClassifyEvent("billing.invoice"))
}

// The receiver must be able to recompute the signature over the exact bytes
// it received. This test plays receiver.
func TestDispatchSignsPayload(t *testing.T) {
	const secret = "super-secret-signing-key"

	var (
		gotBody      []byte
		gotSignature string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSignature = r.Header.Get("X-Webhook-Signature")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	repo := &fakeWebhookRepo{hooks: []*entity.ClientWebhook{
		{ID: 1, ClientSystemID: 9, WebhookURL: srv.URL, Secret: secret, Events: eventsJSON(t, "sync"), Active: true},
	}}
	svc := NewWebhookService(repo, validator.New())

	summary, err := svc.Dispatch(context.Background(), "sync.completed", map[string]int{"records": 3}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.Total)

	require.NotEmpty(t, gotSignature)
	assert.True(t, hmac.Equal([]byte(gotSignature), []byte(Sign(secret, gotBody))))

	var envelope struct {
		Event     string `json:"event"`
		Timestamp int64  `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &envelope))
	assert.Equal(t, "sync.completed", envelope.Event)
	assert.NotZero(t, envelope.Timestamp)
}

func TestDispatchFiltersBySubscription(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	repo := &fakeWebhookRepo{hooks: []*entity.ClientWebhook{
		{ID: 1, WebhookURL: srv.URL, Secret: "0123456789abcdef", Events: eventsJSON(t, "process"), Active: true},
		{ID: 2, WebhookURL: srv.URL, Secret: "0123456789abcdef", Events: eventsJSON(t, "*"), Active: true},
		{ID: 3, WebhookURL: srv.URL, Secret: "0123456789abcdef", Events: eventsJSON(t, "publication"), Active: true},
	}}
	svc := NewWebhookService(repo, validator.New())

	summary, err := svc.Dispatch(context.Background(), "process.registered", nil, nil)
	require.NoError(t, err)

	// Direct subscription plus wildcard; the publication hook stays quiet.
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Sent)
	assert.Equal(t, 2, hits)
}

// One endpoint failing never blocks the others, and nothing is retried.
func TestDispatchSettlesAllDeliveries(t *testing.T) {
	var okHits, badHits int
	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		okHits++
	}))
	defer okSrv.Close()
	badSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		badHits++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer badSrv.Close()

	repo := &fakeWebhookRepo{hooks: []*entity.ClientWebhook{
		{ID: 1, WebhookURL: badSrv.URL, Secret: "0123456789abcdef", Events: eventsJSON(t, "*"), Active: true},
		{ID: 2, WebhookURL: okSrv.URL, Secret: "0123456789abcdef", Events: eventsJSON(t, "*"), Active: true},
	}}
	svc := NewWebhookService(repo, validator.New())

	summary, err := svc.Dispatch(context.Background(), "sync.completed", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, okHits)
	assert.Equal(t, 1, badHits, "failed delivery must not be retried")
	require.Len(t, summary.Results, 2)
}
