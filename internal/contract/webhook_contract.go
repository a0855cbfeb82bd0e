package contract

type WebhookRequest struct {
	WebhookURL string   `json:"webhook_url" validate:"required,url"`
	Secret     string   `json:"secret" validate:"required,min=16,max=128"`
	Events     []string `json:"events" validate:"required,min=1,nodupes,dive,oneof=process distribution publication sync other *"`
}

type WebhookResponse struct {
	ID         int64    `json:"id"`
	WebhookURL string   `json:"webhook_url"`
	Events     []string `json:"events"`
	Active     bool     `json:"active"`
	CreatedAt  string   `json:"created_at"`
}
