package events

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tolujohnson/eventmanager-backend/internal/ledger"
	"github.com/tolujohnson/eventmanager-backend/internal/settings"
	"github.com/tolujohnson/eventmanager-backend/internal/tickets"
	"github.com/tolujohnson/eventmanager-backend/pkg/auth"
	"github.com/tolujohnson/eventmanager-backend/pkg/db/models"
	"github.com/tolujohnson/eventmanager-backend/pkg/enums"
	pkgerrors "github.com/tolujohnson/eventmanager-backend/pkg/errors"
	"github.com/tolujohnson/eventmanager-backend/pkg/logger"
	"gorm.io/gorm"
)

type stubEventsRepo struct {
	users  map[uuid.UUID]*models.User
	events map[uuid.UUID]*models.Event
	guests []models.Guest

	deletedID uuid.UUID
	saved     *models.Event
}

func newStubEventsRepo(users ...*models.User) *stubEventsRepo {
	repo := &stubEventsRepo{
		users:  map[uuid.UUID]*models.User{},
		events: map[uuid.UUID]*models.Event{},
	}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (s *stubEventsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubEventsRepo) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubEventsRepo) Create(ctx context.Context, event *models.Event) error {
	event.ID = uuid.New()
	s.events[event.ID] = event
	return nil
}

func (s *stubEventsRepo) CreateGuest(ctx context.Context, guest *models.Guest) error {
	guest.ID = uuid.New()
	s.guests = append(s.guests, *guest)
	return nil
}

func (s *stubEventsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	if e, ok := s.events[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubEventsRepo) FindByIDWithAssociations(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return s.FindByID(ctx, id)
}

func (s *stubEventsRepo) ListByPlanner(ctx context.Context, plannerID uuid.UUID) ([]models.Event, error) {
	var out []models.Event
	for _, e := range s.events {
		if e.PlannerID == plannerID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *stubEventsRepo) ListUpcomingByPlanner(ctx context.Context, plannerID uuid.UUID, cutoff time.Time) ([]models.Event, error) {
	var out []models.Event
	for _, e := range s.events {
		if e.PlannerID == plannerID && !e.Date.Before(cutoff) && e.Status != enums.EventStatusCompleted {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *stubEventsRepo) ListAll(ctx context.Context) ([]models.Event, error) {
	var out []models.Event
	for _, e := range s.events {
		out = append(out, *e)
	}
	return out, nil
}

func (s *stubEventsRepo) Save(ctx context.Context, event *models.Event) error {
	s.saved = event
	s.events[event.ID] = event
	return nil
}

func (s *stubEventsRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.EventStatus) error {
	if e, ok := s.events[id]; ok {
		e.Status = status
	}
	return nil
}

func (s *stubEventsRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s.deletedID = id
	delete(s.events, id)
	return nil
}

func (s *stubEventsRepo) ListGuests(ctx context.Context, eventID uuid.UUID) ([]models.Guest, error) {
	var out []models.Guest
	for _, g := range s.guests {
		if g.EventID == eventID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *stubEventsRepo) ListTickets(ctx context.Context, eventID uuid.UUID) ([]models.Ticket, error) {
	return nil, nil
}

type stubSettings struct {
	perGuest decimal.Decimal
	fee      decimal.Decimal
	missing  bool
}

func (s *stubSettings) Get(ctx context.Context) (*models.SiteSetting, error) {
	if s.missing {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "site settings not configured")
	}
	return &models.SiteSetting{PerGuestPrice: s.perGuest, GuestDetailsFee: s.fee}, nil
}

func (s *stubSettings) Update(ctx context.Context, actor auth.Identity, input settings.UpdateSettingsInput) (*models.SiteSetting, error) {
	panic("not used")
}

type stubLedger struct {
	balances map[uuid.UUID]decimal.Decimal
	debited  decimal.Decimal
}

func (s *stubLedger) AuthorizeDebit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, cost decimal.Decimal) error {
	balance := s.balances[userID]
	if balance.LessThan(cost) {
		return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "insufficient balance, please top up")
	}
	s.balances[userID] = balance.Sub(cost)
	s.debited = cost
	return nil
}

func (s *stubLedger) Credit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal) error {
	s.balances[userID] = s.balances[userID].Add(amount)
	return nil
}

func (s *stubLedger) Adjust(ctx context.Context, input ledger.AdjustBalanceInput) (*models.User, error) {
	panic("not used")
}

func (s *stubLedger) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return s.balances[userID], nil
}

type stubTickets struct {
	issued int
}

func (s *stubTickets) Issue(ctx context.Context, tx *gorm.DB, input tickets.IssueTicketInput) (*models.Ticket, error) {
	s.issued++
	return &models.Ticket{
		ID:        uuid.New(),
		EventID:   input.EventID,
		GuestName: input.GuestName,
		Code:      fmt.Sprintf("GALA-%04d", s.issued),
	}, nil
}

func (s *stubTickets) ReissueAll(ctx context.Context, eventID uuid.UUID) error { return nil }

func (s *stubTickets) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Ticket, error) {
	return nil, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newEventsService(t *testing.T, repo *stubEventsRepo, setting *stubSettings, ledgerStub *stubLedger) Service {
	t.Helper()
	if setting == nil {
		setting = &stubSettings{perGuest: decimal.NewFromInt(500), fee: decimal.Zero}
	}
	svc, err := NewService(repo, setting, ledgerStub, &stubTickets{}, nil, stubTxRunner{}, testLogger())
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc
}

func testPlanner(balance int64) *models.User {
	return &models.User{
		ID:       uuid.New(),
		Username: "ada",
		Role:     enums.UserRolePlanner,
		Balance:  decimal.NewFromInt(balance),
	}
}

func TestAdmissionCost(t *testing.T) {
	price := decimal.NewFromInt(500)
	fee := decimal.NewFromInt(100)

	if got := AdmissionCost(3, price, fee, false); !got.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("expected 1500 without details, got %s", got)
	}
	if got := AdmissionCost(3, price, fee, true); !got.Equal(decimal.NewFromInt(1800)) {
		t.Fatalf("expected 1800 with details, got %s", got)
	}
	if got := AdmissionCost(0, price, fee, true); !got.IsZero() {
		t.Fatalf("expected zero cost for zero guests, got %s", got)
	}
}

func TestCreateEventDebitsAndAdmitsGuests(t *testing.T) {
	planner := testPlanner(2000)
	repo := newStubEventsRepo(planner)
	ledgerStub := &stubLedger{balances: map[uuid.UUID]decimal.Decimal{planner.ID: planner.Balance}}
	svc := newEventsService(t, repo, nil, ledgerStub)

	event, err := svc.Create(context.Background(), CreateEventInput{
		PlannerID:      planner.ID,
		Name:           "Gala Night",
		Date:           time.Now().Add(48 * time.Hour),
		NumberOfGuests: 3,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if event.Status != enums.EventStatusDraft {
		t.Fatalf("expected draft event, got %s", event.Status)
	}
	if !ledgerStub.debited.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("expected 1500 debited, got %s", ledgerStub.debited)
	}
	if !ledgerStub.balances[planner.ID].Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected remaining balance 500, got %s", ledgerStub.balances[planner.ID])
	}
	if len(repo.guests) != 3 {
		t.Fatalf("expected 3 guest slots, got %d", len(repo.guests))
	}
	for i, guest := range repo.guests {
		want := fmt.Sprintf("GALA-%04d", i+1)
		if guest.Name != want {
			t.Fatalf("expected synthesized name %s, got %s", want, guest.Name)
		}
		if guest.TicketCode == "" {
			t.Fatalf("guest %d missing ticket code", i)
		}
	}
}

func TestCreateEventChargesDetailsFee(t *testing.T) {
	planner := testPlanner(2000)
	repo := newStubEventsRepo(planner)
	setting := &stubSettings{perGuest: decimal.NewFromInt(500), fee: decimal.NewFromInt(100)}
	ledgerStub := &stubLedger{balances: map[uuid.UUID]decimal.Decimal{planner.ID: planner.Balance}}
	svc := newEventsService(t, repo, setting, ledgerStub)

	email := "ada@example.com"
	_, err := svc.Create(context.Background(), CreateEventInput{
		PlannerID:           planner.ID,
		Name:                "Gala Night",
		Date:                time.Now().Add(48 * time.Hour),
		NumberOfGuests:      2,
		IncludeGuestDetails: true,
		Guests: []GuestInput{
			{Name: "Ada", Email: &email},
			{Name: "Grace"},
		},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if !ledgerStub.debited.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("expected 1200 debited with details fee, got %s", ledgerStub.debited)
	}
	if repo.guests[0].Name != "Ada" || repo.guests[1].Name != "Grace" {
		t.Fatalf("roster names not preserved in order: %v", repo.guests)
	}
}

func TestCreateEventInsufficientBalance(t *testing.T) {
	planner := testPlanner(1000)
	repo := newStubEventsRepo(planner)
	ledgerStub := &stubLedger{balances: map[uuid.UUID]decimal.Decimal{planner.ID: planner.Balance}}
	svc := newEventsService(t, repo, nil, ledgerStub)

	_, err := svc.Create(context.Background(), CreateEventInput{
		PlannerID:      planner.ID,
		Name:           "Gala Night",
		Date:           time.Now().Add(48 * time.Hour),
		NumberOfGuests: 3,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if len(repo.guests) != 0 {
		t.Fatalf("no guests should exist after a denied admission")
	}
}

func TestCreateEventRosterLengthMismatch(t *testing.T) {
	planner := testPlanner(5000)
	repo := newStubEventsRepo(planner)
	ledgerStub := &stubLedger{balances: map[uuid.UUID]decimal.Decimal{planner.ID: planner.Balance}}
	svc := newEventsService(t, repo, nil, ledgerStub)

	_, err := svc.Create(context.Background(), CreateEventInput{
		PlannerID:      planner.ID,
		Name:           "Gala Night",
		Date:           time.Now().Add(48 * time.Hour),
		NumberOfGuests: 3,
		Guests:         []GuestInput{{Name: "Ada"}},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateEventMissingSettings(t *testing.T) {
	planner := testPlanner(5000)
	repo := newStubEventsRepo(planner)
	ledgerStub := &stubLedger{balances: map[uuid.UUID]decimal.Decimal{planner.ID: planner.Balance}}
	svc := newEventsService(t, repo, &stubSettings{missing: true}, ledgerStub)

	_, err := svc.Create(context.Background(), CreateEventInput{
		PlannerID:      planner.ID,
		Name:           "Gala Night",
		Date:           time.Now().Add(48 * time.Hour),
		NumberOfGuests: 1,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestUpdateRejectsGuestCountChange(t *testing.T) {
	planner := testPlanner(0)
	repo := newStubEventsRepo(planner)
	event := &models.Event{ID: uuid.New(), PlannerID: planner.ID, Name: "Gala Night", NumberOfGuests: 3}
	repo.events[event.ID] = event
	svc := newEventsService(t, repo, nil, &stubLedger{balances: map[uuid.UUID]decimal.Decimal{}})

	count := 5
	_, err := svc.Update(context.Background(), UpdateEventInput{
		EventID:        event.ID,
		PlannerID:      planner.ID,
		NumberOfGuests: &count,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for guest count change, got %v", err)
	}
	if event.NumberOfGuests != 3 {
		t.Fatalf("guest count mutated to %d", event.NumberOfGuests)
	}
}

func TestUpdateStatusForwardOnly(t *testing.T) {
	adm := &models.User{ID: uuid.New(), Role: enums.UserRoleAdmin}
	repo := newStubEventsRepo(adm)
	event := &models.Event{ID: uuid.New(), PlannerID: uuid.New(), Status: enums.EventStatusActive}
	repo.events[event.ID] = event
	svc := newEventsService(t, repo, nil, &stubLedger{balances: map[uuid.UUID]decimal.Decimal{}})

	if _, err := svc.UpdateStatus(context.Background(), adm.ID, event.ID, enums.EventStatusPending); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict moving backwards, got %v", err)
	}

	updated, err := svc.UpdateStatus(context.Background(), adm.ID, event.ID, enums.EventStatusCompleted)
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if updated.Status != enums.EventStatusCompleted {
		t.Fatalf("expected completed, got %s", updated.Status)
	}

	if _, err := svc.UpdateStatus(context.Background(), adm.ID, event.ID, enums.EventStatusCancelled); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict on terminal event, got %v", err)
	}
}

func TestUpdateStatusRequiresAdmin(t *testing.T) {
	planner := testPlanner(0)
	repo := newStubEventsRepo(planner)
	event := &models.Event{ID: uuid.New(), PlannerID: planner.ID, Status: enums.EventStatusDraft}
	repo.events[event.ID] = event
	svc := newEventsService(t, repo, nil, &stubLedger{balances: map[uuid.UUID]decimal.Decimal{}})

	_, err := svc.UpdateStatus(context.Background(), planner.ID, event.ID, enums.EventStatusPending)
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected admin not found, got %v", err)
	}
}

func TestDeleteEnforcesOwnership(t *testing.T) {
	planner := testPlanner(0)
	repo := newStubEventsRepo(planner)
	event := &models.Event{ID: uuid.New(), PlannerID: planner.ID}
	repo.events[event.ID] = event
	svc := newEventsService(t, repo, nil, &stubLedger{balances: map[uuid.UUID]decimal.Decimal{}})

	err := svc.Delete(context.Background(), auth.Identity{UserID: uuid.New(), Role: enums.UserRolePlanner}, event.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for foreign planner, got %v", err)
	}

	if err := svc.Delete(context.Background(), auth.Identity{UserID: planner.ID, Role: enums.UserRolePlanner}, event.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if repo.deletedID != event.ID {
		t.Fatalf("expected event deleted")
	}
}
