package service

import (
	"github.com/labstack/gommon/log"
	"jurisync/internal/contract"
	"jurisync/internal/domain/entity"
	"jurisync/internal/domain/sqlite/repository"
	"jurisync/internal/utils"
	"jurisync/internal/utils/apierror"
)

// Read side of the distribution and publication feeds.

type DistributionRepository interface {
	FindByID(id int64) (*entity.Distribution, error)
	List(f repository.FeedFilter) ([]*entity.Distribution, error)
}

type PublicationRepository interface {
	FindByID(id int64) (*entity.Publication, error)
	List(f repository.FeedFilter) ([]*entity.Publication, error)
}

type DefaultDistributionService struct {
	Repo       DistributionRepository
	Deliveries DeliveryRepository
}

func NewDistributionService(repo DistributionRepository, deliveries DeliveryRepository) *DefaultDistributionService {
	return &DefaultDistributionService{Repo: repo, Deliveries: deliveries}
}

func (s *DefaultDistributionService) List(token *entity.ApiToken, f repository.FeedFilter) ([]*contract.DistributionResponse, apierror.ErrorResponse) {
	if f.Limit <= 0 || f.Limit > contract.MaxListLimit {
		f.Limit = contract.MaxListLimit
	}

	dists, err := s.Repo.List(f)
	if err != nil {
		log.Errorf("failed to list distributions: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.DistributionResponse, len(dists))
	ids := make([]int64, len(dists))
	for i, dist := range dists {
		resp[i] = toDistributionResponse(dist)
		ids[i] = dist.ID
	}

	if err := s.Deliveries.Record(token.ID, entity.ServiceDistributions, ids); err != nil {
		log.Errorf("failed to record delivery for token %d: %v", token.ID, err)
	}
	return resp, nil
}

func (s *DefaultDistributionService) Get(id int64) (*contract.DistributionResponse, apierror.ErrorResponse) {
	dist, err := s.Repo.FindByID(id)
	if err != nil {
		log.Errorf("failed to fetch distribution: %v", err)
		return nil, apierror.InternalServerError
	}

	if dist == nil {
		return nil, apierror.NotFoundError
	}
	return toDistributionResponse(dist), nil
}

type DefaultPublicationService struct {
	Repo       PublicationRepository
	Deliveries DeliveryRepository
}

func NewPublicationService(repo PublicationRepository, deliveries DeliveryRepository) *DefaultPublicationService {
	return &DefaultPublicationService{Repo: repo, Deliveries: deliveries}
}

func (s *DefaultPublicationService) List(token *entity.ApiToken, f repository.FeedFilter) ([]*contract.PublicationResponse, apierror.ErrorResponse) {
	if f.Limit <= 0 || f.Limit > contract.MaxListLimit {
		f.Limit = contract.MaxListLimit
	}

	pubs, err := s.Repo.List(f)
	if err != nil {
		log.Errorf("failed to list publications: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.PublicationResponse, len(pubs))
	ids := make([]int64, len(pubs))
	for i, pub := range pubs {
		resp[i] = toPublicationResponse(pub)
		ids[i] = pub.ID
	}

	if err := s.Deliveries.Record(token.ID, entity.ServicePublications, ids); err != nil {
		log.Errorf("failed to record delivery for token %d: %v", token.ID, err)
	}
	return resp, nil
}

func (s *DefaultPublicationService) Get(id int64) (*contract.PublicationResponse, apierror.ErrorResponse) {
	pub, err := s.Repo.FindByID(id)
	if err != nil {
		log.Errorf("failed to fetch publication: %v", err)
		return nil, apierror.InternalServerError
	}

	if pub == nil {
		return nil, apierror.NotFoundError
	}
	return toPublicationResponse(pub), nil
}

func toDistributionResponse(dist *entity.Distribution) *contract.DistributionResponse {
	resp := &contract.DistributionResponse{
		ID:            dist.ID,
		ProcessNumber: dist.ProcessNumber,
		Court:         dist.Court,
		CreatedAt:     utils.FormatEpoch(dist.CreatedAt),
	}
	if dist.DistributedAt > 0 {
		resp.DistributedAt = utils.FormatEpoch(dist.DistributedAt)
	}
	return resp
}

func toPublicationResponse(pub *entity.Publication) *contract.PublicationResponse {
	resp := &contract.PublicationResponse{
		ID:            pub.ID,
		ProcessNumber: pub.ProcessNumber,
		Diary:         pub.Diary,
		MatchedTerm:   pub.MatchedTerm,
		Content:       pub.Content,
		CreatedAt:     utils.FormatEpoch(pub.CreatedAt),
	}
	if pub.PublishedAt > 0 {
		resp.PublishedAt = utils.FormatEpoch(pub.PublishedAt)
	}
	return resp
}
