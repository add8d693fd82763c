package users

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/influenciando/reseller-backend/pkg/auth"
	"github.com/influenciando/reseller-backend/pkg/config"
	"github.com/influenciando/reseller-backend/pkg/db"
	"github.com/influenciando/reseller-backend/pkg/db/models"
	"github.com/influenciando/reseller-backend/pkg/enums"
	"github.com/influenciando/reseller-backend/pkg/errors"
	"github.com/influenciando/reseller-backend/pkg/security"
)

// LoginInput is the credential payload.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult carries the minted access token and the authenticated user.
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	User        *models.User `json:"user"`
}

// CreateUserInput is the admin user-creation payload.
type CreateUserInput struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required"`
}

// ServiceParams groups dependencies for the user service.
type ServiceParams struct {
	Repo        Repository
	JWTConfig   config.JWTConfig
	PasswordCfg config.PasswordConfig
	Now         func() time.Time
}

// Service owns panel accounts and credential checks.
type Service struct {
	repo        Repository
	jwtConfig   config.JWTConfig
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

// NewService builds a user service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, stderrors.New("repo is required")
	}
	if params.JWTConfig.Secret == "" {
		return nil, stderrors.New("jwt secret is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:        params.Repo,
		jwtConfig:   params.JWTConfig,
		passwordCfg: params.PasswordCfg,
		now:         now,
	}, nil
}

// Authenticate verifies the credentials and mints an access token. Unknown
// usernames and wrong passwords return the same error.
func (s *Service) Authenticate(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "load user")
	}
	if user == nil {
		return nil, errors.New(errors.CodeUnauthorized, "invalid credentials")
	}
	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, errors.New(errors.CodeUnauthorized, "invalid credentials")
	}

	token, err := auth.MintAccessToken(s.jwtConfig, s.now(), auth.Actor{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "mint access token")
	}
	return &LoginResult{AccessToken: token, User: user}, nil
}

// Create registers a new panel account.
func (s *Service) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	role, err := enums.ParseUserRole(input.Role)
	if err != nil {
		return nil, errors.New(errors.CodeValidation, "role must be admin or user")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Username:     strings.TrimSpace(input.Username),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, errors.New(errors.CodeConflict, "username already exists")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "create user")
	}
	return user, nil
}

// Get returns one user by id.
func (s *Service) Get(ctx context.Context, actor auth.Actor) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "load user")
	}
	if user == nil {
		return nil, errors.New(errors.CodeNotFound, "user not found")
	}
	return user, nil
}
