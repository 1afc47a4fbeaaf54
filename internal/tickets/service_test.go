package tickets

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tolujohnson/eventmanager-backend/pkg/db/models"
	pkgerrors "github.com/tolujohnson/eventmanager-backend/pkg/errors"
	"gorm.io/gorm"
)

type stubTicketRepo struct {
	event  *models.Event
	rows   []models.Ticket
	guests []models.Guest

	// duplicateNext makes the next Create fail with a unique violation
	// without advancing the stored count, simulating a concurrent writer.
	duplicateNext int

	deleted      bool
	guestCodes   map[uuid.UUID]string
	countOnDelta int64
}

func (s *stubTicketRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubTicketRepo) FindEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	if s.event == nil || s.event.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.event, nil
}

func (s *stubTicketRepo) CountByEvent(ctx context.Context, eventID uuid.UUID) (int64, error) {
	return int64(len(s.rows)) + s.countOnDelta, nil
}

func (s *stubTicketRepo) Create(ctx context.Context, ticket *models.Ticket) error {
	if s.duplicateNext > 0 {
		s.duplicateNext--
		return errors.New(`duplicate key value violates unique constraint "idx_tickets_event_code"`)
	}
	for _, existing := range s.rows {
		if existing.Code == ticket.Code {
			return errors.New(`duplicate key value violates unique constraint "idx_tickets_event_code"`)
		}
	}
	ticket.ID = uuid.New()
	s.rows = append(s.rows, *ticket)
	return nil
}

func (s *stubTicketRepo) DeleteByEvent(ctx context.Context, eventID uuid.UUID) error {
	s.deleted = true
	s.rows = nil
	return nil
}

func (s *stubTicketRepo) FindByEventAndCode(ctx context.Context, eventID uuid.UUID, code string) (*models.Ticket, error) {
	for i := range s.rows {
		if s.rows[i].Code == code {
			return &s.rows[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubTicketRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Ticket, error) {
	return s.rows, nil
}

func (s *stubTicketRepo) ListGuestsByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Guest, error) {
	return s.guests, nil
}

func (s *stubTicketRepo) UpdateGuestCode(ctx context.Context, guestID uuid.UUID, code string) error {
	if s.guestCodes == nil {
		s.guestCodes = map[uuid.UUID]string{}
	}
	s.guestCodes[guestID] = code
	return nil
}

type stubRenderer struct {
	err   error
	calls int
}

func (s *stubRenderer) Render(code string) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []byte("png:" + code), nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTicketService(t *testing.T, repo *stubTicketRepo) Service {
	t.Helper()
	svc, err := NewService(repo, &stubRenderer{}, stubTxRunner{})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc
}

func TestCodePrefix(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Gala Night", "GALA"},
		{"tech summit", "TECH"},
		{"Café Night", "CAFÉ"},
		{"Fête", "FÊTE"},
		{"Göl", "EVNT"},
		{"Go", "EVNT"},
		{"  ", "EVNT"},
		{"", "EVNT"},
	}
	for _, tc := range cases {
		got := CodePrefix(tc.name)
		if got != tc.want {
			t.Fatalf("CodePrefix(%q) = %q, want %q", tc.name, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Fatalf("CodePrefix(%q) produced invalid UTF-8 %q", tc.name, got)
		}
	}
}

func TestIssueSequentialCodes(t *testing.T) {
	event := &models.Event{ID: uuid.New(), Name: "Gala Night"}
	repo := &stubTicketRepo{event: event}
	svc := newTicketService(t, repo)

	for i := 1; i <= 3; i++ {
		ticket, err := svc.Issue(context.Background(), nil, IssueTicketInput{
			EventID:   event.ID,
			GuestName: fmt.Sprintf("Guest %d", i),
		})
		if err != nil {
			t.Fatalf("Issue %d returned error: %v", i, err)
		}
		want := fmt.Sprintf("GALA-%04d", i)
		if ticket.Code != want {
			t.Fatalf("expected code %s, got %s", want, ticket.Code)
		}
		if len(ticket.Image) == 0 {
			t.Fatalf("expected rendered image bytes")
		}
	}
}

func TestIssueRetriesOnceOnCodeCollision(t *testing.T) {
	event := &models.Event{ID: uuid.New(), Name: "Gala Night"}
	repo := &stubTicketRepo{event: event, duplicateNext: 1, countOnDelta: 0}
	svc := newTicketService(t, repo)

	ticket, err := svc.Issue(context.Background(), nil, IssueTicketInput{
		EventID:   event.ID,
		GuestName: "Ada",
	})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if ticket.Code != "GALA-0001" {
		t.Fatalf("expected GALA-0001 after retry, got %s", ticket.Code)
	}
}

func TestIssueSurfacesConflictAfterRetries(t *testing.T) {
	event := &models.Event{ID: uuid.New(), Name: "Gala Night"}
	repo := &stubTicketRepo{event: event, duplicateNext: 2}
	svc := newTicketService(t, repo)

	_, err := svc.Issue(context.Background(), nil, IssueTicketInput{
		EventID:   event.ID,
		GuestName: "Ada",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestIssueValidation(t *testing.T) {
	event := &models.Event{ID: uuid.New(), Name: "Gala Night"}
	svc := newTicketService(t, &stubTicketRepo{event: event})

	_, err := svc.Issue(context.Background(), nil, IssueTicketInput{EventID: event.ID, GuestName: "  "})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}

	_, err = svc.Issue(context.Background(), nil, IssueTicketInput{EventID: uuid.New(), GuestName: "Ada"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for unknown event, got %v", err)
	}
}

func TestReissueAllOverwritesGuestCodes(t *testing.T) {
	event := &models.Event{ID: uuid.New(), Name: "Gala Night"}
	guests := []models.Guest{
		{ID: uuid.New(), EventID: event.ID, Name: "Ada", TicketCode: "GALA-0001"},
		{ID: uuid.New(), EventID: event.ID, Name: "Grace", TicketCode: "GALA-0002"},
	}
	repo := &stubTicketRepo{
		event:  event,
		guests: guests,
		rows: []models.Ticket{
			{ID: uuid.New(), EventID: event.ID, GuestName: "Ada", Code: "GALA-0001"},
			{ID: uuid.New(), EventID: event.ID, GuestName: "Grace", Code: "GALA-0002"},
		},
	}
	svc := newTicketService(t, repo)

	if err := svc.ReissueAll(context.Background(), event.ID); err != nil {
		t.Fatalf("ReissueAll returned error: %v", err)
	}
	if !repo.deleted {
		t.Fatalf("expected old tickets deleted")
	}
	if len(repo.rows) != 2 {
		t.Fatalf("expected 2 fresh tickets, got %d", len(repo.rows))
	}
	if repo.guestCodes[guests[0].ID] != "GALA-0001" {
		t.Fatalf("expected first guest re-bound to GALA-0001, got %s", repo.guestCodes[guests[0].ID])
	}
	if repo.guestCodes[guests[1].ID] != "GALA-0002" {
		t.Fatalf("expected second guest re-bound to GALA-0002, got %s", repo.guestCodes[guests[1].ID])
	}
}
