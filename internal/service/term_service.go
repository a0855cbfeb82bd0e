package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"jurisync/internal/contract"
	"jurisync/internal/domain/entity"
	"jurisync/internal/infrastructure/partner"
	"jurisync/internal/utils"
	"jurisync/internal/utils/apierror"
)

type TermRepository interface {
	FindByID(id int64) (*entity.SearchTerm, error)
	FindByService(serviceID int64) ([]*entity.SearchTerm, error)
	Save(term *entity.SearchTerm) error
	Delete(term *entity.SearchTerm) error
}

type ServiceRepository interface {
	FindServiceByID(id int64) (*entity.PartnerService, error)
}

// TermAPI is the slice of the partner client used for term management.
type TermAPI interface {
	Authenticate(ctx context.Context, svc *entity.PartnerService) (*partner.Session, error)
	RegisterTerm(ctx context.Context, s *partner.Session, term string, kind entity.TermKind) error
	ActivateTerm(ctx context.Context, s *partner.Session, term string, kind entity.TermKind) error
	DeactivateTerm(ctx context.Context, s *partner.Session, term string, kind entity.TermKind) error
	DeleteTerm(ctx context.Context, s *partner.Session, term string, kind entity.TermKind) error
	FetchCoverages(ctx context.Context, s *partner.Session) ([]*partner.CoverageRecord, error)
}

// DefaultTermService keeps partner-side search terms and the local mirror in
// step. Publication matching happens on the partner side against this list,
// which is why publication sync runs after term changes settle.
type DefaultTermService struct {
	Repo     TermRepository
	Partners ServiceRepository
	API      TermAPI
	Validate *validator.Validate
}

func NewTermService(repo TermRepository, partners ServiceRepository, api TermAPI, validate *validator.Validate) *DefaultTermService {
	return &DefaultTermService{
		Repo:     repo,
		Partners: partners,
		API:      api,
		Validate: validate,
	}
}

func (t *DefaultTermService) CreateTerm(ctx context.Context, req *contract.TermRequest) (*contract.TermResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := t.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	session, apierr := t.session(ctx, req.ServiceID)
	if apierr != nil {
		return nil, apierr
	}

	kind := entity.TermKind(req.Kind)
	if err := t.API.RegisterTerm(ctx, session, req.Term, kind); err != nil {
		log.Errorf("failed to register term %q with partner: %v", req.Term, err)
		return nil, apierror.NewSimple(502, "Partner rejected the term registration")
	}

	now := utils.NowUTC()
	term := &entity.SearchTerm{
		PartnerServiceID: req.ServiceID,
		Term:             req.Term,
		Kind:             kind,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := t.Repo.Save(term); err != nil {
		log.Errorf("failed to save term %q: %v", req.Term, err)
		return nil, apierror.InternalServerError
	}
	return toTermResponse(term), nil
}

func (t *DefaultTermService) SetTermActive(ctx context.Context, id int64, active bool) (*contract.TermResponse, apierror.ErrorResponse) {
	term, err := t.Repo.FindByID(id)
	if err != nil {
		log.Errorf("failed to fetch term: %v", err)
		return nil, apierror.InternalServerError
	}

	if term == nil {
		return nil, apierror.NotFoundError
	}

	session, apierr := t.session(ctx, term.PartnerServiceID)
	if apierr != nil {
		return nil, apierr
	}

	call := t.API.DeactivateTerm
	if active {
		call = t.API.ActivateTerm
	}
	if err := call(ctx, session, term.Term, term.Kind); err != nil {
		log.Errorf("failed to toggle term %q: %v", term.Term, err)
		return nil, apierror.NewSimple(502, "Partner rejected the term update")
	}

	term.Active = active
	term.UpdatedAt = utils.NowUTC()
	if err := t.Repo.Save(term); err != nil {
		log.Errorf("failed to save term %q: %v", term.Term, err)
		return nil, apierror.InternalServerError
	}
	return toTermResponse(term), nil
}

func (t *DefaultTermService) DeleteTerm(ctx context.Context, id int64) apierror.ErrorResponse {
	term, err := t.Repo.FindByID(id)
	if err != nil {
		log.Errorf("failed to fetch term: %v", err)
		return apierror.InternalServerError
	}

	if term == nil {
		return apierror.NotFoundError
	}

	session, apierr := t.session(ctx, term.PartnerServiceID)
	if apierr != nil {
		return apierr
	}

	if err := t.API.DeleteTerm(ctx, session, term.Term, term.Kind); err != nil {
		log.Errorf("failed to delete term %q on partner: %v", term.Term, err)
		return apierror.NewSimple(502, "Partner rejected the term deletion")
	}

	if err := t.Repo.Delete(term); err != nil {
		log.Errorf("failed to delete term %q: %v", term.Term, err)
		return apierror.InternalServerError
	}
	return nil
}

func (t *DefaultTermService) ListTerms(serviceID int64) ([]*contract.TermResponse, apierror.ErrorResponse) {
	terms, err := t.Repo.FindByService(serviceID)
	if err != nil {
		log.Errorf("failed to list terms: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.TermResponse, len(terms))
	for i, term := range terms {
		resp[i] = toTermResponse(term)
	}
	return resp, nil
}

// ListCoverages proxies the partner's BuscaAbrangencias lookup.
func (t *DefaultTermService) ListCoverages(ctx context.Context, serviceID int64) ([]*contract.CoverageResponse, apierror.ErrorResponse) {
	session, apierr := t.session(ctx, serviceID)
	if apierr != nil {
		return nil, apierr
	}

	records, err := t.API.FetchCoverages(ctx, session)
	if err != nil {
		log.Errorf("failed to fetch coverages: %v", err)
		return nil, apierror.NewSimple(502, "Partner coverage lookup failed")
	}

	resp := make([]*contract.CoverageResponse, len(records))
	for i, rec := range records {
		resp[i] = &contract.CoverageResponse{
			Codigo: rec.Codigo,
			Nome:   rec.Nome,
			Tipo:   rec.Tipo,
			UF:     rec.UF,
		}
	}
	return resp, nil
}

func (t *DefaultTermService) session(ctx context.Context, serviceID int64) (*partner.Session, apierror.ErrorResponse) {
	svc, err := t.Partners.FindServiceByID(serviceID)
	if err != nil {
		log.Errorf("failed to fetch partner service %d: %v", serviceID, err)
		return nil, apierror.InternalServerError
	}

	if svc == nil || !svc.Active {
		return nil, apierror.NotFoundError
	}

	session, err := t.API.Authenticate(ctx, svc)
	if err != nil {
		log.Errorf("partner auth failed for service %d: %v", serviceID, err)
		return nil, apierror.NewSimple(502, "Partner authentication failed")
	}
	return session, nil
}

func toTermResponse(term *entity.SearchTerm) *contract.TermResponse {
	return &contract.TermResponse{
		ID:        term.ID,
		ServiceID: term.PartnerServiceID,
		Term:      term.Term,
		Kind:      string(term.Kind),
		Active:    term.Active,
		CreatedAt: utils.FormatEpoch(term.CreatedAt),
	}
}
