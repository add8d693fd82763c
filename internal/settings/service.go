package settings

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/influenciando/reseller-backend/pkg/db/models"
	"github.com/influenciando/reseller-backend/pkg/errors"
)

// ServiceParams groups dependencies for the settings service.
type ServiceParams struct {
	Repo Repository
}

// Service stores opaque key/value site configuration.
type Service struct {
	repo Repository
}

// NewService builds a settings service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, stderrors.New("repo is required")
	}
	return &Service{repo: params.Repo}, nil
}

// Get returns one setting by key.
func (s *Service) Get(ctx context.Context, key string) (*models.Setting, error) {
	setting, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "load setting")
	}
	if setting == nil {
		return nil, errors.New(errors.CodeNotFound, "setting not found")
	}
	return setting, nil
}

// Set creates or overwrites one setting.
func (s *Service) Set(ctx context.Context, key, value string) (*models.Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New(errors.CodeValidation, "setting key is required")
	}
	setting, err := s.repo.Upsert(ctx, key, value)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "save setting")
	}
	return setting, nil
}

// List returns all settings ordered by key.
func (s *Service) List(ctx context.Context) ([]models.Setting, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "list settings")
	}
	return out, nil
}
