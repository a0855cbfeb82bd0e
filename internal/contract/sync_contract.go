package contract

type SyncTriggerRequest struct {
	Domains    []string `json:"domains" validate:"omitempty,nodupes,dive,oneof=processes distributions publications"`
	ServiceIDs []int64  `json:"service_ids" validate:"omitempty,max=100"`
	Force      bool     `json:"force"`
	Parallel   bool     `json:"parallel"`
}

type TermRequest struct {
	ServiceID int64  `json:"service_id" validate:"required,gt=0"`
	Term      string `json:"term" validate:"required,min=3,max=120"`
	Kind      string `json:"kind" validate:"required,oneof=NAME ESCRITORIO"`
}

type TermResponse struct {
	ID        int64  `json:"id"`
	ServiceID int64  `json:"service_id"`
	Term      string `json:"term"`
	Kind      string `json:"kind"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

type CoverageResponse struct {
	Codigo int64  `json:"codigo"`
	Nome   string `json:"nome"`
	Tipo   string `json:"tipo"`
	UF     string `json:"uf"`
}
