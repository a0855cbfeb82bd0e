package service

import (
	"context"
	"fmt"

	"github.com/labstack/gommon/log"
	"jurisync/internal/domain/entity"
	"jurisync/internal/infrastructure/partner"
)

const (
	// Partners cap confirmation payloads, so code lists are sent in chunks.
	ConfirmChunkSize = 100

	// Aggregated error lists are truncated to keep sync logs readable.
	maxReportedErrors = 10
)

// ConfirmResult aggregates a chunked confirmation run. One chunk failing
// never prevents the others from being sent.
type ConfirmResult struct {
	Confirmed      []int64
	Failed         []int64
	Errors         []string
	omittedErrors  int
}

func (r *ConfirmResult) addError(err error) {
	if len(r.Errors) >= maxReportedErrors {
		r.omittedErrors++
		return
	}
	r.Errors = append(r.Errors, err.Error())
}

func (r *ConfirmResult) ErrorSummary() string {
	if len(r.Errors) == 0 {
		return ""
	}
	summary := fmt.Sprintf("%d codes failed to confirm: %v", len(r.Failed), r.Errors)
	if r.omittedErrors > 0 {
		summary += fmt.Sprintf(" (%d more errors omitted)", r.omittedErrors)
	}
	return summary
}

// ReceiptConfirmer is the one partner call the protocol needs.
type ReceiptConfirmer interface {
	ConfirmReceipt(ctx context.Context, s *partner.Session, domain entity.ServiceType, codes []int64, confirmar bool) error
}

// BatchConfirmer drives the partner's confirm/revert protocol. Confirming
// dequeues codes on the partner side; reverting (confirmar=false) undoes an
// erroneous confirmation so the codes are re-offered on the next pull.
type BatchConfirmer struct {
	Client    ReceiptConfirmer
	ChunkSize int
}

func NewBatchConfirmer(client ReceiptConfirmer) *BatchConfirmer {
	return &BatchConfirmer{Client: client, ChunkSize: ConfirmChunkSize}
}

func (b *BatchConfirmer) Confirm(ctx context.Context, s *partner.Session, domain entity.ServiceType, codes []int64) *ConfirmResult {
	return b.send(ctx, s, domain, codes, true)
}

// Revert is the designated recovery action for over-confirmation. It is not
// a retry mechanism; confirm followed by revert restores the unconfirmed
// state exactly.
func (b *BatchConfirmer) Revert(ctx context.Context, s *partner.Session, domain entity.ServiceType, codes []int64) *ConfirmResult {
	return b.send(ctx, s, domain, codes, false)
}

func (b *BatchConfirmer) send(ctx context.Context, s *partner.Session, domain entity.ServiceType, codes []int64, confirmar bool) *ConfirmResult {
	result := &ConfirmResult{}
	if len(codes) == 0 {
		return result
	}

	chunkSize := b.ChunkSize
	if chunkSize <= 0 {
		chunkSize = ConfirmChunkSize
	}

	for start := 0; start < len(codes); start += chunkSize {
		end := start + chunkSize
		if end > len(codes) {
			end = len(codes)
		}
		chunk := codes[start:end]

		err := b.Client.ConfirmReceipt(ctx, s, domain, chunk, confirmar)
		if err != nil {
			log.Errorf("confirmation chunk failed for %s (%d codes): %v", domain, len(chunk), err)
			result.Failed = append(result.Failed, chunk...)
			result.addError(err)
			continue
		}
		result.Confirmed = append(result.Confirmed, chunk...)
	}
	return result
}
