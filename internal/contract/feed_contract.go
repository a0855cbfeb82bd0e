package contract

type DistributionResponse struct {
	ID            int64  `json:"id"`
	ProcessNumber string `json:"process_number"`
	Court         string `json:"court,omitempty"`
	DistributedAt string `json:"distributed_at,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type PublicationResponse struct {
	ID            int64  `json:"id"`
	ProcessNumber string `json:"process_number,omitempty"`
	Diary         string `json:"diary,omitempty"`
	PublishedAt   string `json:"published_at,omitempty"`
	MatchedTerm   string `json:"matched_term,omitempty"`
	Content       string `json:"content,omitempty"`
	CreatedAt     string `json:"created_at"`
}
