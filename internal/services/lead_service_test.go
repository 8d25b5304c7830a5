package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"partner-office/internal/apperr"
	"partner-office/internal/auth"
	"partner-office/internal/models"
	"partner-office/internal/repository"
)

type leadFixture struct {
	leads    *repository.LeadRepository
	partners *repository.PartnerRepository
	service  *LeadService
	notifier *fakeNotifier
}

func setupLeadFixture(t *testing.T) *leadFixture {
	t.Helper()

	db := setupTestDB(t)
	partners := repository.NewPartnerRepository(db)
	leads := repository.NewLeadRepository(db)
	policy := NewScopePolicy(NewHierarchyService(partners))
	notifier := newFakeNotifier()

	createPartner(t, partners, "R", "", 0)
	createPartner(t, partners, "A", "R", 1)
	createPartner(t, partners, "B", "R", 1)
	createPartner(t, partners, "A1", "A", 2)

	return &leadFixture{
		leads:    leads,
		partners: partners,
		service:  NewLeadService(leads, partners, policy, notifier),
		notifier: notifier,
	}
}

func identity(code string) auth.Identity {
	return auth.Identity{UniqueCode: code, Role: models.RolePartner}
}

func TestListLeadsScopedAndFiltered(t *testing.T) {
	f := setupLeadFixture(t)
	now := time.Now()

	createLead(t, f.leads, "R", models.LeadStatusContracted, now.Add(-1*time.Hour))
	createLead(t, f.leads, "A", models.LeadStatusContracted, now.Add(-2*time.Hour))
	createLead(t, f.leads, "A", models.LeadStatusNew, now.Add(-3*time.Hour))
	createLead(t, f.leads, "A1", models.LeadStatusContracted, now.Add(-4*time.Hour))
	createLead(t, f.leads, "B", models.LeadStatusContracted, now.Add(-5*time.Hour))
	// Outside every scope under test.
	createLead(t, f.leads, "OUTSIDER", models.LeadStatusContracted, now)

	listing, err := f.service.ListLeads(context.Background(), identity("A"), ListOptions{
		Status: models.LeadStatusContracted,
	})
	if err != nil {
		t.Fatalf("ListLeads failed: %v", err)
	}

	if listing.Pagination.Total != 2 {
		t.Fatalf("expected 2 contracted leads in A's scope, got %d", listing.Pagination.Total)
	}
	if listing.RequesterCode != "A" {
		t.Errorf("expected requester code A, got %s", listing.RequesterCode)
	}

	for _, lead := range listing.Items {
		if lead.Status != models.LeadStatusContracted {
			t.Errorf("expected contracted status, got %s", lead.Status)
		}
		if lead.MarketerCode != "A" && lead.MarketerCode != "A1" {
			t.Errorf("lead %s outside A's scope", lead.MarketerCode)
		}
		// canEdit reflects the caller, not the queried code set.
		if lead.MarketerCode == "A" && !lead.CanEdit {
			t.Error("caller's own lead must be editable")
		}
		if lead.MarketerCode == "A1" && lead.CanEdit {
			t.Error("descendant's lead must not be editable")
		}
	}

	// Most recent first.
	if len(listing.Items) == 2 && listing.Items[0].SubmittedAt.Before(listing.Items[1].SubmittedAt) {
		t.Error("leads must be ordered by submission time, descending")
	}
}

func TestListLeadsSearch(t *testing.T) {
	f := setupLeadFixture(t)
	now := time.Now()

	phoneMatch := &models.Lead{
		MarketerCode: "R",
		Status:       models.LeadStatusNew,
		ContactPhone: "010-1234-5678",
		SubmittedAt:  now,
	}
	locationMatch := &models.Lead{
		MarketerCode:    "R",
		Status:          models.LeadStatusNew,
		ContactPhone:    "010-9999-0000",
		InstallLocation: "Seoul Gangnam 1234 Tower",
		SubmittedAt:     now,
	}
	noMatch := &models.Lead{
		MarketerCode:    "R",
		Status:          models.LeadStatusNew,
		ContactPhone:    "010-7777-8888",
		InstallLocation: "Busan",
		SubmittedAt:     now,
	}
	for _, lead := range []*models.Lead{phoneMatch, locationMatch, noMatch} {
		if err := f.leads.Create(context.Background(), lead); err != nil {
			t.Fatalf("failed to create lead: %v", err)
		}
	}

	// Either field matching is sufficient.
	listing, err := f.service.ListLeads(context.Background(), identity("R"), ListOptions{Search: "1234"})
	if err != nil {
		t.Fatalf("ListLeads failed: %v", err)
	}
	if listing.Pagination.Total != 2 {
		t.Fatalf("expected 2 search matches, got %d", listing.Pagination.Total)
	}

	// Case-insensitive substring.
	listing, err = f.service.ListLeads(context.Background(), identity("R"), ListOptions{Search: "gangnam"})
	if err != nil {
		t.Fatalf("ListLeads failed: %v", err)
	}
	if listing.Pagination.Total != 1 {
		t.Fatalf("expected 1 search match, got %d", listing.Pagination.Total)
	}
}

func TestListLeadsPagination(t *testing.T) {
	f := setupLeadFixture(t)
	now := time.Now()

	for i := 0; i < 45; i++ {
		createLead(t, f.leads, "R", models.LeadStatusNew, now.Add(-time.Duration(i)*time.Minute))
	}

	listing, err := f.service.ListLeads(context.Background(), identity("R"), ListOptions{
		Page:     3,
		PageSize: 20,
	})
	if err != nil {
		t.Fatalf("ListLeads failed: %v", err)
	}

	if len(listing.Items) != 5 {
		t.Errorf("expected the final 5 items on page 3, got %d", len(listing.Items))
	}
	if listing.Pagination.Total != 45 {
		t.Errorf("expected total 45, got %d", listing.Pagination.Total)
	}
	if listing.Pagination.TotalPages != 3 {
		t.Errorf("expected 3 total pages, got %d", listing.Pagination.TotalPages)
	}
}

func TestListLeadsOnlyMine(t *testing.T) {
	f := setupLeadFixture(t)
	now := time.Now()

	createLead(t, f.leads, "A", models.LeadStatusNew, now)
	createLead(t, f.leads, "A1", models.LeadStatusNew, now)

	listing, err := f.service.ListLeads(context.Background(), identity("A"), ListOptions{OnlyMine: true})
	if err != nil {
		t.Fatalf("ListLeads failed: %v", err)
	}
	if listing.Pagination.Total != 1 {
		t.Fatalf("expected 1 own lead, got %d", listing.Pagination.Total)
	}
	if listing.Items[0].MarketerCode != "A" {
		t.Errorf("expected own lead, got %s", listing.Items[0].MarketerCode)
	}
}

func TestGetLeadScope(t *testing.T) {
	f := setupLeadFixture(t)
	lead := createLead(t, f.leads, "A1", models.LeadStatusNew, time.Now())

	// Visible to an ancestor, not editable.
	got, err := f.service.GetLead(context.Background(), identity("A"), lead.ID)
	if err != nil {
		t.Fatalf("GetLead failed: %v", err)
	}
	if got.CanEdit {
		t.Error("descendant's lead must not be editable")
	}

	// Invisible to a sibling.
	if _, err := f.service.GetLead(context.Background(), identity("B"), lead.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestTransitionContractedNotifiesOnce(t *testing.T) {
	f := setupLeadFixture(t)
	lead := createLead(t, f.leads, "A", models.LeadStatusNew, time.Now())

	updated, err := f.service.Transition(context.Background(), identity("A"), lead.ID, models.LeadStatusContracted)
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if updated.Status != models.LeadStatusContracted {
		t.Errorf("expected contracted status, got %s", updated.Status)
	}

	stored, err := f.leads.GetByID(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("failed to reload lead: %v", err)
	}
	if stored.Status != models.LeadStatusContracted {
		t.Errorf("expected persisted contracted status, got %s", stored.Status)
	}

	event := f.notifier.waitForEvent(t)
	if event.Status != models.LeadStatusContracted {
		t.Errorf("expected contracted event, got %s", event.Status)
	}
	if f.notifier.count() != 1 {
		t.Errorf("expected exactly one notification, got %d", f.notifier.count())
	}
}

func TestTransitionIdempotentValueDoesNotNotify(t *testing.T) {
	f := setupLeadFixture(t)
	lead := createLead(t, f.leads, "A", models.LeadStatusContracted, time.Now())

	// Same target value: persists, but previous == new means no event.
	if _, err := f.service.Transition(context.Background(), identity("A"), lead.ID, models.LeadStatusContracted); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}

	// A real change afterwards produces exactly one event in total.
	if _, err := f.service.Transition(context.Background(), identity("A"), lead.ID, models.LeadStatusCancelled); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}

	event := f.notifier.waitForEvent(t)
	if event.Status != models.LeadStatusCancelled {
		t.Errorf("expected cancelled event, got %s", event.Status)
	}
	if f.notifier.count() != 1 {
		t.Errorf("expected exactly one notification, got %d", f.notifier.count())
	}
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	f := setupLeadFixture(t)
	lead := createLead(t, f.leads, "A", models.LeadStatusNew, time.Now())

	_, err := f.service.Transition(context.Background(), identity("A"), lead.ID, "bogus")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	// Storage untouched.
	stored, err := f.leads.GetByID(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("failed to reload lead: %v", err)
	}
	if stored.Status != models.LeadStatusNew {
		t.Errorf("expected status unchanged, got %s", stored.Status)
	}
	if f.notifier.count() != 0 {
		t.Errorf("expected no notifications, got %d", f.notifier.count())
	}
}

func TestTransitionForbiddenForDescendantLead(t *testing.T) {
	f := setupLeadFixture(t)
	lead := createLead(t, f.leads, "A1", models.LeadStatusNew, time.Now())

	// The ancestor can see the lead but is told forbidden, not not-found.
	_, err := f.service.Transition(context.Background(), identity("A"), lead.ID, models.LeadStatusContracted)
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestTransitionUnknownLead(t *testing.T) {
	f := setupLeadFixture(t)

	_, err := f.service.Transition(context.Background(), identity("A"), uuid.New(), models.LeadStatusContracted)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestTransitionAdministrator(t *testing.T) {
	f := setupLeadFixture(t)
	lead := createLead(t, f.leads, "B", models.LeadStatusInProgress, time.Now())

	admin := auth.Identity{UniqueCode: "MADMIN", Role: models.RoleAdministrator}
	updated, err := f.service.Transition(context.Background(), admin, lead.ID, models.LeadStatusCancelled)
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if updated.Status != models.LeadStatusCancelled {
		t.Errorf("expected cancelled status, got %s", updated.Status)
	}
}

func TestShouldNotify(t *testing.T) {
	cases := []struct {
		previous string
		next     string
		want     bool
	}{
		{models.LeadStatusNew, models.LeadStatusContracted, true},
		{models.LeadStatusNew, models.LeadStatusCancelled, true},
		{models.LeadStatusInProgress, models.LeadStatusContracted, true},
		{models.LeadStatusNew, models.LeadStatusInProgress, false},
		{models.LeadStatusContracted, models.LeadStatusContracted, false},
		{models.LeadStatusCancelled, models.LeadStatusCancelled, false},
		{models.LeadStatusContracted, models.LeadStatusCancelled, true},
	}

	for _, tc := range cases {
		if got := shouldNotify(tc.previous, tc.next); got != tc.want {
			t.Errorf("shouldNotify(%s, %s) = %v, want %v", tc.previous, tc.next, got, tc.want)
		}
	}
}
