package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
	"jurisync/internal/domain/entity"
	"jurisync/internal/infrastructure/partner"
	"jurisync/internal/utils"
)

const (
	// Services synced more recently than this are skipped unless forced.
	SyncCooldown = 5 * time.Minute

	// Partner pulls are bounded; the partner never sends more than this.
	DefaultPullLimit = 500
)

type PartnerServiceRepository interface {
	FindActiveServices(domains []entity.ServiceType, ids []int64) ([]*entity.PartnerService, error)
	TouchLastSync(serviceID int64) error
}

type SyncLogRepository interface {
	Start(serviceID int64) (*entity.SyncLog, error)
	Finish(entry *entity.SyncLog, status entity.SyncStatus, records int, errMsg string) error
}

type ProcessSyncRepository interface {
	FindByNumber(number string) (*entity.Process, error)
	Save(process *entity.Process) error
	UpsertByNumber(process *entity.Process) error
	UpsertDocument(doc *entity.ProcessDocument) error
}

type DistributionSyncRepository interface {
	Upsert(dist *entity.Distribution) error
	MarkConfirmed(serviceID int64, codes []int64, confirmed bool) error
}

type PublicationSyncRepository interface {
	Upsert(pub *entity.Publication) error
	MarkConfirmed(serviceID int64, codes []int64, confirmed bool) error
}

// PartnerAPI is the slice of the partner client the orchestrator drives.
type PartnerAPI interface {
	Authenticate(ctx context.Context, svc *entity.PartnerService) (*partner.Session, error)
	FetchProcesses(ctx context.Context, s *partner.Session, limit int) ([]*partner.ProcessRecord, error)
	FetchDistributions(ctx context.Context, s *partner.Session, limit int) ([]*partner.DistributionRecord, error)
	FetchPublications(ctx context.Context, s *partner.Session, limit int) ([]*partner.PublicationRecord, error)
	ConfirmReceipt(ctx context.Context, s *partner.Session, domain entity.ServiceType, codes []int64, confirmar bool) error
}

type Materializer interface {
	Run(ctx context.Context, batch int) (*MaterializeResult, error)
}

type Notifier interface {
	Notify(ctx context.Context, event string, data any, clientIDs []int64)
}

type SyncRequest struct {
	Domains    []entity.ServiceType
	ServiceIDs []int64
	Force      bool
	Parallel   bool
}

type DomainResult struct {
	Domain   entity.ServiceType `json:"domain"`
	Services int                `json:"services"`
	Skipped  int                `json:"skipped"`
	Records  int                `json:"records"`
	Errors   []string           `json:"errors,omitempty"`
}

// SyncResult is always best effort: one domain failing never hides the
// outcome of the others.
type SyncResult struct {
	Domains map[entity.ServiceType]*DomainResult `json:"domains"`
	Errors  []string                             `json:"errors,omitempty"`
}

// SyncOrchestrator runs one sync pass over the requested partner services.
// It holds no state between invocations; an external scheduler triggers it.
type SyncOrchestrator struct {
	Partners      PartnerServiceRepository
	SyncLogs      SyncLogRepository
	Processes     ProcessSyncRepository
	Distributions DistributionSyncRepository
	Publications  PublicationSyncRepository
	API           PartnerAPI
	Confirmer     *BatchConfirmer
	Materializer  Materializer
	Notifier      Notifier
	PullLimit     int
	Now           func() int64
}

func NewSyncOrchestrator(
	partners PartnerServiceRepository,
	syncLogs SyncLogRepository,
	processes ProcessSyncRepository,
	distributions DistributionSyncRepository,
	publications PublicationSyncRepository,
	api PartnerAPI,
	confirmer *BatchConfirmer,
	materializer Materializer,
	notifier Notifier,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		Partners:      partners,
		SyncLogs:      syncLogs,
		Processes:     processes,
		Distributions: distributions,
		Publications:  publications,
		API:           api,
		Confirmer:     confirmer,
		Materializer:  materializer,
		Notifier:      notifier,
		PullLimit:     DefaultPullLimit,
		Now:           utils.NowUTC,
	}
}

// Run executes one orchestration pass. Processes and distributions may run
// concurrently; publications always go last because publication matching
// depends on an up-to-date term list on the partner side.
func (o *SyncOrchestrator) Run(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	domains := req.Domains
	if len(domains) == 0 {
		domains = entity.SyncDomains
	}

	services, err := o.Partners.FindActiveServices(domains, req.ServiceIDs)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{Domains: map[entity.ServiceType]*DomainResult{}}
	byDomain := map[entity.ServiceType][]*entity.PartnerService{}

	cutoff := o.Now() - SyncCooldown.Milliseconds()
	for _, svc := range services {
		dr := result.domain(svc.ServiceType)
		if !req.Force && svc.LastSyncAt > cutoff {
			dr.Skipped++
			continue
		}
		byDomain[svc.ServiceType] = append(byDomain[svc.ServiceType], svc)
	}

	var mu sync.Mutex
	runDomain := func(domain entity.ServiceType) {
		for _, svc := range byDomain[domain] {
			records, err := o.syncService(ctx, svc)

			mu.Lock()
			dr := result.domain(domain)
			dr.Services++
			dr.Records += records
			if err != nil {
				msg := fmt.Sprintf("service %d (%s): %v", svc.ID, domain, err)
				dr.Errors = append(dr.Errors, msg)
				result.Errors = append(result.Errors, msg)
			}
			mu.Unlock()
		}
	}

	first := []entity.ServiceType{}
	for _, domain := range []entity.ServiceType{entity.ServiceProcesses, entity.ServiceDistributions} {
		if _, ok := byDomain[domain]; ok {
			first = append(first, domain)
		}
	}

	if req.Parallel && len(first) > 1 {
		var wg sync.WaitGroup
		for _, domain := range first {
			wg.Add(1)
			go func(d entity.ServiceType) {
				defer wg.Done()
				runDomain(d)
			}(domain)
		}
		wg.Wait()
	} else {
		for _, domain := range first {
			runDomain(domain)
		}
	}

	// Publications last, always sequential.
	if _, ok := byDomain[entity.ServicePublications]; ok {
		runDomain(entity.ServicePublications)
	}

	if o.Materializer != nil && len(byDomain[entity.ServiceProcesses]) > 0 {
		if _, err := o.Materializer.Run(ctx, DefaultDocumentBatch); err != nil {
			msg := "document materialization: " + err.Error()
			result.Errors = append(result.Errors, msg)
			log.Errorf("%s", msg)
		}
	}

	if o.Notifier != nil {
		o.Notifier.Notify(ctx, "sync.completed", result, nil)
	}
	return result, nil
}

func (r *SyncResult) domain(d entity.ServiceType) *DomainResult {
	dr, ok := r.Domains[d]
	if !ok {
		dr = &DomainResult{Domain: d}
		r.Domains[d] = dr
	}
	return dr
}

// syncService runs one pull→persist→confirm cycle against a single service.
// A 401 aborts this service's pass only; record-level failures are collected
// and reported without stopping the batch.
func (o *SyncOrchestrator) syncService(ctx context.Context, svc *entity.PartnerService) (int, error) {
	entry, err := o.SyncLogs.Start(svc.ID)
	if err != nil {
		return 0, err
	}

	session, err := o.API.Authenticate(ctx, svc)
	if err != nil {
		if errors.Is(err, partner.ErrUnauthorized) {
			err = fmt.Errorf("authentication rejected for %s: %w", svc.RelationalName, err)
		}
		_ = o.SyncLogs.Finish(entry, entity.SyncError, 0, err.Error())
		return 0, err
	}

	var (
		records int
		codes   []int64
		pullErr error
	)

	switch svc.ServiceType {
	case entity.ServiceProcesses:
		records, codes, pullErr = o.syncProcesses(ctx, session, svc)
	case entity.ServiceDistributions:
		records, codes, pullErr = o.syncDistributions(ctx, session, svc)
	case entity.ServicePublications:
		records, codes, pullErr = o.syncPublications(ctx, session, svc)
	default:
		pullErr = fmt.Errorf("service type %q is not syncable", svc.ServiceType)
	}

	if pullErr != nil {
		_ = o.SyncLogs.Finish(entry, entity.SyncError, records, pullErr.Error())
		return records, pullErr
	}

	confirm := o.Confirmer.Confirm(ctx, session, svc.ServiceType, codes)
	o.markConfirmed(svc, confirm.Confirmed)

	if err := o.Partners.TouchLastSync(svc.ID); err != nil {
		log.Errorf("failed to update last_sync_at for service %d: %v", svc.ID, err)
	}

	_ = o.SyncLogs.Finish(entry, entity.SyncSuccess, records, confirm.ErrorSummary())
	return records, nil
}

func (o *SyncOrchestrator) syncProcesses(ctx context.Context, s *partner.Session, svc *entity.PartnerService) (int, []int64, error) {
	pulled, err := o.API.FetchProcesses(ctx, s, o.PullLimit)
	if err != nil {
		return 0, nil, err
	}

	var (
		records int
		codes   []int64
	)
	for _, rec := range pulled {
		if err := o.persistProcess(rec, svc.ID); err != nil {
			log.Errorf("failed to persist process %s: %v", rec.NumeroProcesso, err)
			continue
		}
		records++
		codes = append(codes, rec.Codigo)
	}
	return records, codes, nil
}

// persistProcess upserts a pulled record, letting the lifecycle table decide
// whether the partner-reported status may be applied.
func (o *SyncOrchestrator) persistProcess(rec *partner.ProcessRecord, serviceID int64) error {
	incoming := rec.ToDomain(serviceID)
	if incoming.StatusCode == entity.StatusError {
		incoming.ErrorCategory = string(ClassifyRejection(incoming.StatusDescription))
	}

	existing, err := o.Processes.FindByNumber(rec.NumeroProcesso)
	if err != nil {
		return err
	}

	if existing == nil {
		if err := o.Processes.UpsertByNumber(incoming); err != nil {
			return err
		}
	} else {
		if !ApplyPartnerStatus(existing, incoming.StatusCode, incoming.StatusDescription) {
			// Archived or an invalid transition: nothing gets written.
			return nil
		}
		existing.PartnerCode = incoming.PartnerCode
		existing.RawData = incoming.RawData
		existing.UpdatedAt = o.Now()
		if err := o.Processes.Save(existing); err != nil {
			return err
		}
	}

	stored, err := o.Processes.FindByNumber(rec.NumeroProcesso)
	if err != nil || stored == nil {
		return err
	}
	for _, doc := range incoming.Documents {
		doc.ProcessID = stored.ID
		if err := o.Processes.UpsertDocument(doc); err != nil {
			log.Errorf("failed to upsert document %d of process %s: %v", doc.PartnerCode, rec.NumeroProcesso, err)
		}
	}
	return nil
}

func (o *SyncOrchestrator) syncDistributions(ctx context.Context, s *partner.Session, svc *entity.PartnerService) (int, []int64, error) {
	pulled, err := o.API.FetchDistributions(ctx, s, o.PullLimit)
	if err != nil {
		return 0, nil, err
	}

	var (
		records int
		codes   []int64
	)
	for _, rec := range pulled {
		if err := o.Distributions.Upsert(rec.ToDomain(svc.ID)); err != nil {
			log.Errorf("failed to persist distribution %d: %v", rec.Codigo, err)
			continue
		}
		records++
		codes = append(codes, rec.Codigo)
	}
	return records, codes, nil
}

func (o *SyncOrchestrator) syncPublications(ctx context.Context, s *partner.Session, svc *entity.PartnerService) (int, []int64, error) {
	pulled, err := o.API.FetchPublications(ctx, s, o.PullLimit)
	if err != nil {
		return 0, nil, err
	}

	var (
		records int
		codes   []int64
	)
	for _, rec := range pulled {
		if err := o.Publications.Upsert(rec.ToDomain(svc.ID)); err != nil {
			log.Errorf("failed to persist publication %d: %v", rec.Codigo, err)
			continue
		}
		records++
		codes = append(codes, rec.Codigo)
	}
	return records, codes, nil
}

func (o *SyncOrchestrator) markConfirmed(svc *entity.PartnerService, codes []int64) {
	if len(codes) == 0 {
		return
	}

	var err error
	switch svc.ServiceType {
	case entity.ServiceDistributions:
		err = o.Distributions.MarkConfirmed(svc.ID, codes, true)
	case entity.ServicePublications:
		err = o.Publications.MarkConfirmed(svc.ID, codes, true)
	}
	if err != nil {
		log.Errorf("failed to flag confirmed records for service %d: %v", svc.ID, err)
	}
}
