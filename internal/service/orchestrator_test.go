package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"jurisync/internal/domain/entity"
	"jurisync/internal/infrastructure/partner"
)

type fakePartnerRepo struct {
	services []*entity.PartnerService
	touched  []int64
	mu       sync.Mutex
}

func (f *fakePartnerRepo) FindActiveServices(domains []entity.ServiceType, ids []int64) ([]*entity.PartnerService, error) {
	wanted := map[entity.ServiceType]bool{}
	for _, d := range domains {
		wanted[d] = true
	}

	var out []*entity.PartnerService
	for _, svc := range f.services {
		if wanted[svc.ServiceType] {
			out = append(out, svc)
		}
	}
	return out, nil
}

func (f *fakePartnerRepo) TouchLastSync(serviceID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, serviceID)
	return nil
}

type fakeSyncLogs struct {
	mu       sync.Mutex
	finished []*entity.SyncLog
}

func (f *fakeSyncLogs) Start(serviceID int64) (*entity.SyncLog, error) {
	return &entity.SyncLog{PartnerServiceID: serviceID, Status: entity.SyncRunning}, nil
}

func (f *fakeSyncLogs) Finish(entry *entity.SyncLog, status entity.SyncStatus, records int, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.Status = status
	entry.RecordsSynced = records
	entry.ErrorMessage = errMsg
	f.finished = append(f.finished, entry)
	return nil
}

type fakeProcessSync struct {
	mu        sync.Mutex
	byNumber  map[string]*entity.Process
	upserted  []*entity.Process
	documents []*entity.ProcessDocument
}

func (f *fakeProcessSync) FindByNumber(number string) (*entity.Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byNumber[number], nil
}

func (f *fakeProcessSync) Save(p *entity.Process) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byNumber[p.Number] = p
	return nil
}

func (f *fakeProcessSync) UpsertByNumber(p *entity.Process) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = int64(len(f.byNumber) + 1)
	f.byNumber[p.Number] = p
	f.upserted = append(f.upserted, p)
	return nil
}

func (f *fakeProcessSync) UpsertDocument(doc *entity.ProcessDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents = append(f.documents, doc)
	return nil
}

type fakeFeedSync struct {
	mu        sync.Mutex
	upserts   int
	confirmed [][]int64
}

func (f *fakeFeedSync) Upsert(_ *entity.Distribution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	return nil
}

func (f *fakeFeedSync) MarkConfirmed(_ int64, codes []int64, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, codes)
	return nil
}

type fakePubSync struct{ fakeFeedSync }

func (f *fakePubSync) Upsert(_ *entity.Publication) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	return nil
}

// fakePartnerAPI records the order domains are pulled in.
type fakePartnerAPI struct {
	mu            sync.Mutex
	pullOrder     []entity.ServiceType
	confirms      []entity.ServiceType
	authFailures  map[int64]bool
	processes     []*partner.ProcessRecord
	distributions []*partner.DistributionRecord
	publications  []*partner.PublicationRecord
}

func (f *fakePartnerAPI) Authenticate(_ context.Context, svc *entity.PartnerService) (*partner.Session, error) {
	if f.authFailures[svc.ID] {
		return nil, partner.ErrUnauthorized
	}
	return &partner.Session{Service: svc, Token: "jwt"}, nil
}

func (f *fakePartnerAPI) FetchProcesses(_ context.Context, s *partner.Session, _ int) ([]*partner.ProcessRecord, error) {
	f.record(entity.ServiceProcesses)
	return f.processes, nil
}

func (f *fakePartnerAPI) FetchDistributions(_ context.Context, s *partner.Session, _ int) ([]*partner.DistributionRecord, error) {
	f.record(entity.ServiceDistributions)
	return f.distributions, nil
}

func (f *fakePartnerAPI) FetchPublications(_ context.Context, s *partner.Session, _ int) ([]*partner.PublicationRecord, error) {
	f.record(entity.ServicePublications)
	return f.publications, nil
}

func (f *fakePartnerAPI) ConfirmReceipt(_ context.Context, _ *partner.Session, domain entity.ServiceType, codes []int64, confirmar bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirms = append(f.confirms, domain)
	return nil
}

func (f *fakePartnerAPI) record(domain entity.ServiceType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pullOrder = append(f.pullOrder, domain)
}

func testService(id int64, domain entity.ServiceType, lastSync int64) *entity.PartnerService {
	return &entity.PartnerService{
		ID:             id,
		ServiceType:    domain,
		BaseURL:        "https://partner.test",
		RelationalName: "acme",
		Active:         true,
		LastSyncAt:     lastSync,
	}
}

func newTestOrchestrator(repo *fakePartnerRepo, api *fakePartnerAPI) (*SyncOrchestrator, *fakeSyncLogs, *fakeProcessSync, *fakeFeedSync, *fakePubSync) {
	logs := &fakeSyncLogs{}
	processes := &fakeProcessSync{byNumber: map[string]*entity.Process{}}
	dists := &fakeFeedSync{}
	pubs := &fakePubSync{}

	o := NewSyncOrchestrator(repo, logs, processes, dists, pubs, api, NewBatchConfirmer(api), nil, nil)
	return o, logs, processes, dists, pubs
}

func TestRunSkipsCooledDownServices(t *testing.T) {
	now := time.Now().UnixMilli()
	repo := &fakePartnerRepo{services: []*entity.PartnerService{
		testService(1, entity.ServiceProcesses, now),          // just synced
		testService(2, entity.ServiceProcesses, now-600_000),  // 10 min ago
	}}
	api := &fakePartnerAPI{}
	o, _, _, _, _ := newTestOrchestrator(repo, api)

	result, err := o.Run(context.Background(), SyncRequest{Domains: []entity.ServiceType{entity.ServiceProcesses}})
	require.NoError(t, err)

	dr := result.Domains[entity.ServiceProcesses]
	require.NotNil(t, dr)
	assert.Equal(t, 1, dr.Skipped)
	assert.Equal(t, 1, dr.Services)
	assert.Equal(t, []int64{2}, repo.touched)
}

func TestRunForceOverridesCooldown(t *testing.T) {
	now := time.Now().UnixMilli()
	repo := &fakePartnerRepo{services: []*entity.PartnerService{
		testService(1, entity.ServiceProcesses, now),
	}}
	api := &fakePartnerAPI{}
	o, _, _, _, _ := newTestOrchestrator(repo, api)

	result, err := o.Run(context.Background(), SyncRequest{Force: true})
	require.NoError(t, err)

	dr := result.Domains[entity.ServiceProcesses]
	assert.Zero(t, dr.Skipped)
	assert.Equal(t, 1, dr.Services)
}

func TestRunPublicationsAlwaysLast(t *testing.T) {
	repo := &fakePartnerRepo{services: []*entity.PartnerService{
		testService(1, entity.ServicePublications, 0),
		testService(2, entity.ServiceProcesses, 0),
		testService(3, entity.ServiceDistributions, 0),
	}}
	api := &fakePartnerAPI{}
	o, _, _, _, _ := newTestOrchestrator(repo, api)

	_, err := o.Run(context.Background(), SyncRequest{Parallel: true})
	require.NoError(t, err)

	require.Len(t, api.pullOrder, 3)
	assert.Equal(t, entity.ServicePublications, api.pullOrder[len(api.pullOrder)-1])
}

func TestRunAuthFailureIsolatesService(t *testing.T) {
	repo := &fakePartnerRepo{services: []*entity.PartnerService{
		testService(1, entity.ServiceProcesses, 0),
		testService(2, entity.ServiceDistributions, 0),
	}}
	api := &fakePartnerAPI{
		authFailures: map[int64]bool{1: true},
		distributions: []*partner.DistributionRecord{
			{Codigo: 10, NumeroProcesso: "0000001-11.2020.1.01.0001"},
		},
	}
	o, logs, _, dists, _ := newTestOrchestrator(repo, api)

	result, err := o.Run(context.Background(), SyncRequest{})
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "service 1")

	// The distribution service still completed its pass.
	assert.Equal(t, 1, dists.upserts)
	assert.Equal(t, []int64{2}, repo.touched)

	statuses := map[entity.SyncStatus]int{}
	for _, entry := range logs.finished {
		statuses[entry.Status]++
	}
	assert.Equal(t, 1, statuses[entity.SyncError])
	assert.Equal(t, 1, statuses[entity.SyncSuccess])
}

func TestRunConfirmsAndFlagsPulledRecords(t *testing.T) {
	repo := &fakePartnerRepo{services: []*entity.PartnerService{
		testService(1, entity.ServiceDistributions, 0),
	}}
	api := &fakePartnerAPI{
		distributions: []*partner.DistributionRecord{
			{Codigo: 10, NumeroProcesso: "0000001-11.2020.1.01.0001"},
			{Codigo: 11, NumeroProcesso: "0000002-22.2021.2.02.0002"},
		},
	}
	o, _, _, dists, _ := newTestOrchestrator(repo, api)

	_, err := o.Run(context.Background(), SyncRequest{})
	require.NoError(t, err)

	require.Len(t, api.confirms, 1)
	assert.Equal(t, entity.ServiceDistributions, api.confirms[0])
	require.Len(t, dists.confirmed, 1)
	assert.Equal(t, []int64{10, 11}, dists.confirmed[0])
}

func TestPersistProcessRespectsLifecycle(t *testing.T) {
	repo := &fakePartnerRepo{services: []*entity.PartnerService{
		testService(1, entity.ServiceProcesses, 0),
	}}
	api := &fakePartnerAPI{
		processes: []*partner.ProcessRecord{
			{Codigo: 5, NumeroProcesso: "0000001-11.2020.1.01.0001", Status: 2},
		},
	}
	o, _, processes, _, _ := newTestOrchestrator(repo, api)

	// Seed an archived process with the same number.
	processes.byNumber["0000001-11.2020.1.01.0001"] = &entity.Process{
		ID:         99,
		Number:     "0000001-11.2020.1.01.0001",
		StatusCode: entity.StatusArchived,
	}

	_, err := o.Run(context.Background(), SyncRequest{})
	require.NoError(t, err)

	stored := processes.byNumber["0000001-11.2020.1.01.0001"]
	assert.Equal(t, entity.StatusArchived, stored.StatusCode, "archived process must not be resurrected by sync")
}
