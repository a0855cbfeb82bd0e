package contract

// MaxListLimit caps every list response of the data API.
const MaxListLimit = 500

type RegisterProcessRequest struct {
	Number string `json:"number" validate:"required,cnj"`
}

type UpdateProcessNumberRequest struct {
	Number string `json:"number" validate:"required,cnj"`
}

// SetProcessStatusRequest is the operator override for a process status,
// including reactivation out of ARCHIVED. Only known codes are accepted.
type SetProcessStatusRequest struct {
	StatusCode int `json:"status_code" validate:"required,oneof=1 2 4 7 8"`
}

type ProcessResponse struct {
	ID                int64               `json:"id"`
	Number            string              `json:"number"`
	StatusCode        int                 `json:"status_code"`
	Status            string              `json:"status"`
	StatusDescription string              `json:"status_description,omitempty"`
	ErrorCategory     string              `json:"error_category,omitempty"`
	RawData           any                 `json:"raw_data,omitempty"`
	Documents         []*DocumentResponse `json:"documents,omitempty"`
	CreatedAt         string              `json:"created_at"`
	UpdatedAt         string              `json:"updated_at"`
}

type DocumentResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	URL          string `json:"url,omitempty"`
	Available    bool   `json:"available"`
	Expired      bool   `json:"expired"`
	TamanhoBytes int64  `json:"size_bytes"`
}
