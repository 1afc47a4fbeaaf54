package users

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/tolujohnson/eventmanager-backend/pkg/auth"
	"github.com/tolujohnson/eventmanager-backend/pkg/config"
	"github.com/tolujohnson/eventmanager-backend/pkg/db/models"
	"github.com/tolujohnson/eventmanager-backend/pkg/enums"
	pkgerrors "github.com/tolujohnson/eventmanager-backend/pkg/errors"
	"github.com/tolujohnson/eventmanager-backend/pkg/logger"
	"gorm.io/gorm"
)

type stubUsersRepo struct {
	rows map[uuid.UUID]*models.User
}

func newStubUsersRepo(users ...*models.User) *stubUsersRepo {
	repo := &stubUsersRepo{rows: map[uuid.UUID]*models.User{}}
	for _, u := range users {
		repo.rows[u.ID] = u
	}
	return repo
}

func (s *stubUsersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubUsersRepo) Create(ctx context.Context, user *models.User) error {
	for _, existing := range s.rows {
		if existing.Username == user.Username || existing.Email == user.Email {
			return errors.New(`duplicate key value violates unique constraint "idx_users_username"`)
		}
	}
	user.ID = uuid.New()
	s.rows[user.ID] = user
	return nil
}

func (s *stubUsersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s.rows[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsersRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range s.rows {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsersRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range s.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsersRepo) ListPlanners(ctx context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range s.rows {
		if u.Role == enums.UserRolePlanner {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *stubUsersRepo) Save(ctx context.Context, user *models.User) error {
	s.rows[user.ID] = user
	return nil
}

func testPasswordConfig() config.PasswordConfig {
	// Small argon parameters keep the test fast.
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "eventmanager-test",
		ExpirationMinutes: 60,
	}
}

func newUsersService(t *testing.T, repo Repository) Service {
	t.Helper()
	log := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(repo, testPasswordConfig(), testJWTConfig(), log)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc
}

func registration() RegisterInput {
	return RegisterInput{
		FullName: "Ada Lovelace",
		Username: "Ada",
		Email:    "Ada@Example.com",
		Password: "correct horse battery",
	}
}

func TestRegisterCreatesPlannerWithZeroBalance(t *testing.T) {
	repo := newStubUsersRepo()
	svc := newUsersService(t, repo)

	user, err := svc.Register(context.Background(), registration())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Role != enums.UserRolePlanner {
		t.Fatalf("expected planner role, got %s", user.Role)
	}
	if !user.Balance.IsZero() {
		t.Fatalf("expected zero balance, got %s", user.Balance)
	}
	if user.Username != "ada" || user.Email != "ada@example.com" {
		t.Fatalf("expected lowercased identifiers, got %s / %s", user.Username, user.Email)
	}
	if user.PasswordHash == "" || strings.Contains(user.PasswordHash, "correct horse") {
		t.Fatalf("password must be stored hashed")
	}
}

func TestRegisterDuplicateUsernameConflicts(t *testing.T) {
	repo := newStubUsersRepo()
	svc := newUsersService(t, repo)

	if _, err := svc.Register(context.Background(), registration()); err != nil {
		t.Fatalf("first Register returned error: %v", err)
	}

	_, err := svc.Register(context.Background(), registration())
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newUsersService(t, newStubUsersRepo())

	input := registration()
	input.Password = "short"
	_, err := svc.Register(context.Background(), input)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for short password, got %v", err)
	}

	input = registration()
	input.Email = "not-an-email"
	_, err = svc.Register(context.Background(), input)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for bad email, got %v", err)
	}
}

func TestLoginByUsernameAndEmail(t *testing.T) {
	repo := newStubUsersRepo()
	svc := newUsersService(t, repo)

	if _, err := svc.Register(context.Background(), registration()); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	for _, login := range []string{"ada", "ADA@example.com"} {
		result, err := svc.Login(context.Background(), LoginInput{Login: login, Password: "correct horse battery"})
		if err != nil {
			t.Fatalf("Login(%s) returned error: %v", login, err)
		}
		if result.Token == "" {
			t.Fatalf("expected access token for %s", login)
		}

		claims, err := auth.ParseAccessToken(testJWTConfig(), result.Token)
		if err != nil {
			t.Fatalf("minted token failed verification: %v", err)
		}
		identity := claims.Identity()
		if identity.UserID != result.User.ID || identity.Role != enums.UserRolePlanner {
			t.Fatalf("token claims do not match user: %+v", identity)
		}
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newStubUsersRepo()
	svc := newUsersService(t, repo)

	if _, err := svc.Register(context.Background(), registration()); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	_, err := svc.Login(context.Background(), LoginInput{Login: "ada", Password: "wrong password"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newUsersService(t, newStubUsersRepo())

	_, err := svc.Login(context.Background(), LoginInput{Login: "ghost", Password: "whatever1"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginBlockedAccount(t *testing.T) {
	repo := newStubUsersRepo()
	svc := newUsersService(t, repo)

	user, err := svc.Register(context.Background(), registration())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	user.IsBlocked = true

	_, err = svc.Login(context.Background(), LoginInput{Login: "ada", Password: "correct horse battery"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for blocked account, got %v", err)
	}
}

func TestListPlannersRequiresAdmin(t *testing.T) {
	repo := newStubUsersRepo()
	svc := newUsersService(t, repo)

	user, err := svc.Register(context.Background(), registration())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	_, err = svc.ListPlanners(context.Background(), auth.Identity{UserID: user.ID, Role: enums.UserRolePlanner})
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	planners, err := svc.ListPlanners(context.Background(), auth.Identity{UserID: uuid.New(), Role: enums.UserRoleAdmin})
	if err != nil {
		t.Fatalf("ListPlanners returned error: %v", err)
	}
	if len(planners) != 1 {
		t.Fatalf("expected 1 planner, got %d", len(planners))
	}
}
