package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tolujohnson/eventmanager-backend/pkg/auth"
	"github.com/tolujohnson/eventmanager-backend/pkg/config"
	"github.com/tolujohnson/eventmanager-backend/pkg/db"
	"github.com/tolujohnson/eventmanager-backend/pkg/db/models"
	"github.com/tolujohnson/eventmanager-backend/pkg/enums"
	pkgerrors "github.com/tolujohnson/eventmanager-backend/pkg/errors"
	"github.com/tolujohnson/eventmanager-backend/pkg/logger"
	"github.com/tolujohnson/eventmanager-backend/pkg/security"
	"gorm.io/gorm"
)

// RegisterInput captures a new planner registration.
type RegisterInput struct {
	FullName    string  `json:"fullName" validate:"required,min=1,max=200"`
	Username    string  `json:"username" validate:"required,min=3,max=64"`
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=8"`
	Phone       *string `json:"phone"`
	Country     *string `json:"country"`
	CompanyName *string `json:"companyName"`
}

// LoginInput authenticates by username or email plus password.
type LoginInput struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult carries the authenticated user and their access token.
type LoginResult struct {
	User  *models.User
	Token string
}

// Service manages user registration and authentication. Self-registration
// always produces a planner account with a zero balance.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListPlanners(ctx context.Context, actor auth.Identity) ([]models.User, error)
}

type service struct {
	repo        Repository
	passwordCfg config.PasswordConfig
	jwtCfg      config.JWTConfig
	log         *logger.Logger
	validate    *validator.Validate
	now         func() time.Time
}

// NewService wires the users service with its configuration.
func NewService(repo Repository, passwordCfg config.PasswordConfig, jwtCfg config.JWTConfig, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        repo,
		passwordCfg: passwordCfg,
		jwtCfg:      jwtCfg,
		log:         log,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		now:         time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid registration input")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		FullName:     input.FullName,
		Username:     strings.ToLower(strings.TrimSpace(input.Username)),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		Phone:        input.Phone,
		Country:      input.Country,
		CompanyName:  input.CompanyName,
		Role:         enums.UserRolePlanner,
		Balance:      decimal.Zero,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username or email already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	logCtx := s.log.WithUserID(ctx, user.ID.String())
	s.log.Info(logCtx, "planner registered")
	return user, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid login input")
	}

	login := strings.ToLower(strings.TrimSpace(input.Login))
	user, err := s.repo.FindByUsername(ctx, login)
	if err == gorm.ErrRecordNotFound {
		user, err = s.repo.FindByEmail(ctx, login)
	}
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user.IsBlocked {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is blocked")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := auth.MintAccessToken(s.jwtCfg, s.now(), auth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	logCtx := s.log.WithUserID(ctx, user.ID.String())
	s.log.Info(logCtx, "user logged in")
	return &LoginResult{User: user, Token: token}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) ListPlanners(ctx context.Context, actor auth.Identity) ([]models.User, error) {
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	planners, err := s.repo.ListPlanners(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list planners")
	}
	return planners, nil
}
