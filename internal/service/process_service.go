package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"jurisync/internal/contract"
	"jurisync/internal/domain/entity"
	"jurisync/internal/domain/sqlite/repository"
	"jurisync/internal/infrastructure/partner"
	"jurisync/internal/utils"
	"jurisync/internal/utils/apierror"
	"jurisync/internal/utils/validators"
)

// IncludeOptions the process detail endpoint understands. Movements, parties
// and cover come straight from the raw partner snapshot.
var validIncludes = []string{"documents", "movements", "parties", "cover"}

type ProcessRepository interface {
	FindByID(id int64) (*entity.Process, error)
	FindByIDWithDocuments(id int64) (*entity.Process, error)
	FindByNumber(number string) (*entity.Process, error)
	Save(process *entity.Process) error
	List(f repository.ProcessFilter) ([]*entity.Process, error)
	UpdateStatus(id int64, status entity.ProcessStatus, description string) error
	LinkClient(processID, clientID int64) error
}

type DeliveryRepository interface {
	Record(tokenID int64, domain entity.ServiceType, recordIDs []int64) error
	FindLatestUnconfirmed(tokenID int64, domain entity.ServiceType) (*entity.ClientDelivery, error)
	MarkConfirmed(delivery *entity.ClientDelivery) error
}

type RegistrarRepository interface {
	FindFirstActiveByType(serviceType entity.ServiceType) (*entity.PartnerService, error)
}

// RegistrarAPI is the slice of the partner client registration needs.
type RegistrarAPI interface {
	Authenticate(ctx context.Context, svc *entity.PartnerService) (*partner.Session, error)
	RegisterProcess(ctx context.Context, s *partner.Session, number string) (*partner.RegistrationRecord, error)
}

type DefaultProcessService struct {
	Repo       ProcessRepository
	Partners   RegistrarRepository
	Deliveries DeliveryRepository
	API        RegistrarAPI
	Validate   *validator.Validate
}

func NewProcessService(
	repo ProcessRepository,
	partners RegistrarRepository,
	deliveries DeliveryRepository,
	api RegistrarAPI,
	validate *validator.Validate,
) *DefaultProcessService {
	return &DefaultProcessService{
		Repo:       repo,
		Partners:   partners,
		Deliveries: deliveries,
		API:        api,
		Validate:   validate,
	}
}

// Register submits a process for monitoring. The CNJ format is checked
// before any partner call; malformed numbers never leave the platform.
func (p *DefaultProcessService) Register(ctx context.Context, client *entity.ClientSystem, req *contract.RegisterProcessRequest) (*contract.ProcessResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := p.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	existing, err := p.Repo.FindByNumber(req.Number)
	if err != nil {
		log.Errorf("failed to fetch process %s: %v", req.Number, err)
		return nil, apierror.InternalServerError
	}

	if existing != nil {
		// Already monitored; just link the requesting client.
		if err := p.Repo.LinkClient(existing.ID, client.ID); err != nil {
			log.Errorf("failed to link client %d to process %d: %v", client.ID, existing.ID, err)
			return nil, apierror.InternalServerError
		}
		return toProcessResponse(existing, nil), nil
	}

	now := utils.NowUTC()
	process := &entity.Process{
		Number:     req.Number,
		StatusCode: entity.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := p.Repo.Save(process); err != nil {
		log.Errorf("failed to create process %s: %v", req.Number, err)
		return nil, apierror.InternalServerError
	}
	if err := p.Repo.LinkClient(process.ID, client.ID); err != nil {
		log.Errorf("failed to link client %d to process %d: %v", client.ID, process.ID, err)
	}

	p.submitRegistration(ctx, process)

	if err := p.Repo.Save(process); err != nil {
		log.Errorf("failed to update process %s after registration: %v", req.Number, err)
		return nil, apierror.InternalServerError
	}
	return toProcessResponse(process, nil), nil
}

// submitRegistration sends the number to the partner and folds the answer
// into the process. A transport failure leaves the process PENDING so the
// next attempt can pick it up; only a partner verdict moves it further.
func (p *DefaultProcessService) submitRegistration(ctx context.Context, process *entity.Process) {
	svc, err := p.Partners.FindFirstActiveByType(entity.ServiceProcesses)
	if err != nil || svc == nil {
		log.Warnf("no active process service available to register %s", process.Number)
		return
	}

	session, err := p.API.Authenticate(ctx, svc)
	if err != nil {
		log.Errorf("registration auth failed for %s: %v", process.Number, err)
		return
	}

	record, err := p.API.RegisterProcess(ctx, session, process.Number)
	if err != nil {
		var apiErr *partner.APIError
		if errors.As(err, &apiErr) {
			log.Errorf("registration of %s rejected with status %d", process.Number, apiErr.StatusCode)
		} else {
			log.Errorf("registration of %s failed: %v", process.Number, err)
		}
		return
	}

	// Submission accepted: the partner is now validating.
	process.StatusCode = entity.StatusValidating
	process.PartnerServiceID = svc.ID
	process.PartnerCode = record.Codigo
	process.UpdatedAt = utils.NowUTC()

	ApplyPartnerStatus(process, entity.ProcessStatus(record.Status), record.Mensagem)
}

// UpdateNumber changes a process's CNJ number. The partner must re-validate
// the new identifier, so the status is forced back to VALIDATING and any
// previous error description is cleared, regardless of the current state.
func (p *DefaultProcessService) UpdateNumber(ctx context.Context, id int64, req *contract.UpdateProcessNumberRequest) (*contract.ProcessResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := p.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	process, err := p.Repo.FindByID(id)
	if err != nil {
		log.Errorf("failed to fetch process: %v", err)
		return nil, apierror.InternalServerError
	}

	if process == nil {
		return nil, apierror.NotFoundError
	}

	if process.StatusCode == entity.StatusArchived {
		return nil, apierror.ArchivedProcessError
	}

	ResetForNumberChange(process, req.Number)
	process.UpdatedAt = utils.NowUTC()

	if err := p.Repo.Save(process); err != nil {
		log.Errorf("failed to update process number: %v", err)
		return nil, apierror.InternalServerError
	}

	p.submitRegistration(ctx, process)
	if err := p.Repo.Save(process); err != nil {
		log.Errorf("failed to persist re-registration of %s: %v", process.Number, err)
	}

	return toProcessResponse(process, nil), nil
}

func (p *DefaultProcessService) List(token *entity.ApiToken, f repository.ProcessFilter) ([]*contract.ProcessResponse, apierror.ErrorResponse) {
	if f.Number != "" && !validators.IsCNJ(f.Number) {
		return nil, apierror.InvalidCNJError
	}
	if f.Limit <= 0 || f.Limit > contract.MaxListLimit {
		f.Limit = contract.MaxListLimit
	}

	processes, err := p.Repo.List(f)
	if err != nil {
		log.Errorf("failed to list processes: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.ProcessResponse, len(processes))
	ids := make([]int64, len(processes))
	for i, process := range processes {
		resp[i] = toProcessResponse(process, nil)
		ids[i] = process.ID
	}

	if err := p.Deliveries.Record(token.ID, entity.ServiceProcesses, ids); err != nil {
		// The data still goes out; only the confirm bookkeeping is degraded.
		log.Errorf("failed to record delivery for token %d: %v", token.ID, err)
	}
	return resp, nil
}

func (p *DefaultProcessService) Get(id int64, includes []string) (*contract.ProcessResponse, apierror.ErrorResponse) {
	withDocuments := false
	for _, inc := range includes {
		if !includeSupported(inc) {
			return nil, apierror.NewInvalidIncludeError(inc, validIncludes)
		}
		if inc == "documents" {
			withDocuments = true
		}
	}

	var (
		process *entity.Process
		err     error
	)
	if withDocuments {
		process, err = p.Repo.FindByIDWithDocuments(id)
	} else {
		process, err = p.Repo.FindByID(id)
	}
	if err != nil {
		log.Errorf("failed to fetch process: %v", err)
		return nil, apierror.InternalServerError
	}

	if process == nil {
		return nil, apierror.NotFoundError
	}

	resp := toProcessResponse(process, includes)
	if withDocuments {
		resp.Documents = toDocumentResponses(process.Documents)
	}
	return resp, nil
}

// SetStatus is the operator override: it writes any known status directly,
// outside the partner transition table. This is the out-of-band path that
// reactivates an archived process.
func (p *DefaultProcessService) SetStatus(id int64, req *contract.SetProcessStatusRequest) (*contract.ProcessResponse, apierror.ErrorResponse) {
	if valerr := p.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	process, err := p.Repo.FindByID(id)
	if err != nil {
		log.Errorf("failed to fetch process: %v", err)
		return nil, apierror.InternalServerError
	}

	if process == nil {
		return nil, apierror.NotFoundError
	}

	status := entity.ProcessStatus(req.StatusCode)
	if err := p.Repo.UpdateStatus(id, status, ""); err != nil {
		log.Errorf("failed to set status of process %d: %v", id, err)
		return nil, apierror.InternalServerError
	}

	process.StatusCode = status
	process.StatusDescription = ""
	process.ErrorCategory = ""
	process.UpdatedAt = utils.NowUTC()
	return toProcessResponse(process, nil), nil
}

// ConfirmDelivery acknowledges the most recent unconfirmed batch handed to
// this token for one domain.
func (p *DefaultProcessService) ConfirmDelivery(token *entity.ApiToken, domain entity.ServiceType) apierror.ErrorResponse {
	delivery, err := p.Deliveries.FindLatestUnconfirmed(token.ID, domain)
	if err != nil {
		log.Errorf("failed to fetch delivery for token %d: %v", token.ID, err)
		return apierror.InternalServerError
	}

	if delivery == nil {
		return apierror.NothingToConfirmError
	}

	if err := p.Deliveries.MarkConfirmed(delivery); err != nil {
		log.Errorf("failed to confirm delivery %d: %v", delivery.ID, err)
		return apierror.InternalServerError
	}
	return nil
}

func includeSupported(inc string) bool {
	for _, v := range validIncludes {
		if v == inc {
			return true
		}
	}
	return false
}

func toProcessResponse(process *entity.Process, includes []string) *contract.ProcessResponse {
	resp := &contract.ProcessResponse{
		ID:                process.ID,
		Number:            process.Number,
		StatusCode:        int(process.StatusCode),
		Status:            process.StatusCode.Label(),
		StatusDescription: process.StatusDescription,
		ErrorCategory:     process.ErrorCategory,
		CreatedAt:         utils.FormatEpoch(process.CreatedAt),
		UpdatedAt:         utils.FormatEpoch(process.UpdatedAt),
	}

	if len(process.RawData) > 0 && len(includes) > 0 {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(process.RawData, &raw); err == nil {
			for _, inc := range includes {
				attachRawInclude(resp, raw, inc)
			}
		}
	}
	return resp
}

// attachRawInclude surfaces a sub-resource from the raw partner snapshot.
// Keys are the partner's Portuguese field names.
func attachRawInclude(resp *contract.ProcessResponse, raw map[string]json.RawMessage, include string) {
	key := map[string]string{
		"movements": "movimentos",
		"parties":   "partes",
		"cover":     "capa",
	}[include]
	if key == "" {
		return
	}

	if data, ok := raw[key]; ok {
		if resp.RawData == nil {
			resp.RawData = map[string]json.RawMessage{}
		}
		resp.RawData.(map[string]json.RawMessage)[include] = data
	}
}

func toDocumentResponses(docs []*entity.ProcessDocument) []*contract.DocumentResponse {
	resp := make([]*contract.DocumentResponse, len(docs))
	for i, doc := range docs {
		resp[i] = &contract.DocumentResponse{
			ID:           doc.ID,
			Name:         doc.Name,
			URL:          doc.DocumentoURL,
			Available:    doc.Available(),
			Expired:      doc.Expired(),
			TamanhoBytes: doc.TamanhoBytes,
		}
	}
	return resp
}
