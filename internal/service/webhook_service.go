package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"jurisync/internal/contract"
	"jurisync/internal/domain/entity"
	"jurisync/internal/utils"
	"jurisync/internal/utils/apierror"
	"jurisync/internal/utils/uid"
)

const webhookTimeout = 10 * time.Second

type WebhookRepository interface {
	FindActive(clientIDs []int64) ([]*entity.ClientWebhook, error)
	FindByID(id int64) (*entity.ClientWebhook, error)
	FindByClient(clientID int64) ([]*entity.ClientWebhook, error)
	Save(hook *entity.ClientWebhook) error
	Delete(hook *entity.ClientWebhook) error
}

type WebhookService struct {
	Repo       WebhookRepository
	Validate   *validator.Validate
	httpClient *http.Client
}

func NewWebhookService(repo WebhookRepository, validate *validator.Validate) *WebhookService {
	return &WebhookService{
		Repo:       repo,
		Validate:   validate,
		httpClient: &http.Client{Timeout: webhookTimeout},
	}
}

// ClassifyEvent buckets an event name into a category by substring match.
func ClassifyEvent(event string) entity.EventCategory {
	e := strings.ToLower(event)
	switch {
	case strings.Contains(e, "process"):
		return entity.CategoryProcess
	case strings.Contains(e, "distribution"):
		return entity.CategoryDistribution
	case strings.Contains(e, "publication"):
		return entity.CategoryPublication
	case strings.Contains(e, "sync"):
		return entity.CategorySync
	default:
		return entity.CategoryOther
	}
}

// Sign computes the hex HMAC-SHA256 of the raw body with the webhook secret.
// Receivers recompute it over the exact bytes they received.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// webhookEnvelope wraps every delivery. The id is unique per dispatch so
// receivers can deduplicate if the same event ever reaches them twice through
// different subscriptions.
type webhookEnvelope struct {
	ID        string `json:"id"`
	Event     string `json:"event"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

// DeliveryResult records one delivery attempt. There is no retry: delivery
// is at most once and the summary is informational, not a guarantee.
type DeliveryResult struct {
	WebhookID int64 `json:"webhook_id"`
	Status    int   `json:"status"`
	OK        bool  `json:"ok"`
}

type NotifySummary struct {
	Sent    int               `json:"sent"`
	Total   int               `json:"total"`
	Results []*DeliveryResult `json:"results,omitempty"`
}

// Dispatch delivers the event to every active webhook subscribed to its
// category, optionally restricted to the given clients. Deliveries run
// concurrently and all settle; one endpoint failing never blocks another.
func (w *WebhookService) Dispatch(ctx context.Context, event string, data any, clientIDs []int64) (*NotifySummary, error) {
	category := ClassifyEvent(event)

	hooks, err := w.Repo.FindActive(clientIDs)
	if err != nil {
		return nil, err
	}

	subscribed := hooks[:0:0]
	for _, hook := range hooks {
		if webhookSubscribed(hook, category) {
			subscribed = append(subscribed, hook)
		}
	}

	summary := &NotifySummary{Total: len(subscribed)}
	if len(subscribed) == 0 {
		return summary, nil
	}

	body, err := json.Marshal(&webhookEnvelope{
		ID:        uuid.NewString(),
		Event:     event,
		Data:      data,
		Timestamp: utils.NowUTC(),
	})
	if err != nil {
		return nil, err
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, hook := range subscribed {
		wg.Add(1)
		go func(hook *entity.ClientWebhook) {
			defer wg.Done()
			result := w.deliver(ctx, hook, body)

			mu.Lock()
			summary.Results = append(summary.Results, result)
			if result.OK {
				summary.Sent++
			}
			mu.Unlock()
		}(hook)
	}
	wg.Wait()

	return summary, nil
}

// Notify is the fire-and-forget form used by the orchestrator.
func (w *WebhookService) Notify(ctx context.Context, event string, data any, clientIDs []int64) {
	summary, err := w.Dispatch(ctx, event, data, clientIDs)
	if err != nil {
		log.Errorf("webhook dispatch for %q failed: %v", event, err)
		return
	}
	if summary.Total > 0 {
		log.Infof("webhook %q delivered to %d/%d endpoints", event, summary.Sent, summary.Total)
	}
}

func (w *WebhookService) deliver(ctx context.Context, hook *entity.ClientWebhook, body []byte) *DeliveryResult {
	result := &DeliveryResult{WebhookID: hook.ID}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.WebhookURL, bytes.NewReader(body))
	if err != nil {
		log.Errorf("webhook %d has an unusable URL: %v", hook.ID, err)
		return result
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", Sign(hook.Secret, body))

	resp, err := w.httpClient.Do(req)
	if err != nil {
		log.Warnf("webhook %d delivery failed: %v", hook.ID, err)
		return result
	}
	defer resp.Body.Close()

	result.Status = resp.StatusCode
	result.OK = resp.StatusCode >= 200 && resp.StatusCode <= 299
	return result
}

func webhookSubscribed(hook *entity.ClientWebhook, category entity.EventCategory) bool {
	var events []string
	if err := json.Unmarshal(hook.Events, &events); err != nil {
		log.Warnf("webhook %d has malformed event subscriptions: %v", hook.ID, err)
		return false
	}
	for _, e := range events {
		if e == "*" || entity.EventCategory(e) == category {
			return true
		}
	}
	return false
}

/*
 * Subscription management
 */

func (w *WebhookService) CreateWebhook(client *entity.ClientSystem, req *contract.WebhookRequest) (*contract.WebhookResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := w.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	events, err := json.Marshal(req.Events)
	if err != nil {
		log.Errorf("failed to serialize webhook events: %v", err)
		return nil, apierror.InternalServerError
	}

	now := utils.NowUTC()
	hook := &entity.ClientWebhook{
		ID:             uid.Generate(),
		ClientSystemID: client.ID,
		WebhookURL:     req.WebhookURL,
		Secret:         req.Secret,
		Events:         events,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := w.Repo.Save(hook); err != nil {
		log.Errorf("failed to save webhook: %v", err)
		return nil, apierror.InternalServerError
	}
	return toWebhookResponse(hook), nil
}

func (w *WebhookService) ListWebhooks(client *entity.ClientSystem) ([]*contract.WebhookResponse, apierror.ErrorResponse) {
	hooks, err := w.Repo.FindByClient(client.ID)
	if err != nil {
		log.Errorf("failed to fetch webhooks: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.WebhookResponse, len(hooks))
	for i, hook := range hooks {
		resp[i] = toWebhookResponse(hook)
	}
	return resp, nil
}

func (w *WebhookService) DeleteWebhook(client *entity.ClientSystem, id int64) apierror.ErrorResponse {
	hook, err := w.Repo.FindByID(id)
	if err != nil {
		log.Errorf("failed to fetch webhook: %v", err)
		return apierror.InternalServerError
	}

	if hook == nil || hook.ClientSystemID != client.ID {
		return apierror.NotFoundError
	}

	if err := w.Repo.Delete(hook); err != nil {
		log.Errorf("failed to delete webhook: %v", err)
		return apierror.InternalServerError
	}
	return nil
}

func toWebhookResponse(hook *entity.ClientWebhook) *contract.WebhookResponse {
	var events []string
	_ = json.Unmarshal(hook.Events, &events)

	return &contract.WebhookResponse{
		ID:         hook.ID,
		WebhookURL: hook.WebhookURL,
		Events:     events,
		Active:     hook.Active,
		CreatedAt:  utils.FormatEpoch(hook.CreatedAt),
	}
}
