package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"partner-office/internal/apperr"
	"partner-office/internal/auth"
	"partner-office/internal/models"
	"partner-office/internal/notify"
	"partner-office/internal/repository"

	"github.com/google/uuid"
)

// notifyTimeout bounds the fire-and-forget delivery, which runs on its own
// context and may outlive the originating request.
const notifyTimeout = 15 * time.Second

// ListOptions carries the caller-supplied narrowing of a lead listing.
type ListOptions struct {
	Status   string
	Search   string
	Code     string
	OnlyMine bool
	Page     int
	PageSize int
}

// Pagination describes the window of a lead listing.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// LeadListing is the scoped listing response shape.
type LeadListing struct {
	Items         []models.Lead `json:"items"`
	Pagination    Pagination    `json:"pagination"`
	RequesterCode string        `json:"requester_code"`
}

// LeadService drives scoped lead queries and the lead lifecycle.
type LeadService struct {
	leads    *repository.LeadRepository
	partners *repository.PartnerRepository
	policy   *ScopePolicy
	notifier notify.Notifier
}

func NewLeadService(
	leads *repository.LeadRepository,
	partners *repository.PartnerRepository,
	policy *ScopePolicy,
	notifier notify.Notifier,
) *LeadService {
	return &LeadService{
		leads:    leads,
		partners: partners,
		policy:   policy,
		notifier: notifier,
	}
}

// ListLeads returns the caller's scoped lead listing. Every item carries a
// can_edit flag derived from the mutation policy against the caller, not
// against the queried code set.
func (s *LeadService) ListLeads(ctx context.Context, caller auth.Identity, opts ListOptions) (*LeadListing, error) {
	scope, err := s.policy.VisibleScope(ctx, caller)
	if err != nil {
		return nil, err
	}

	scope, err = s.policy.Narrow(scope, caller, opts.Code, opts.OnlyMine)
	if err != nil {
		return nil, err
	}

	if opts.Status != "" && !models.IsValidStatus(opts.Status) {
		return nil, apperr.Validationf("unknown status %q", opts.Status)
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	items, total, err := s.leads.Query(ctx, repository.LeadFilter{
		Codes:        scope.Codes,
		Unrestricted: scope.Unrestricted,
		Status:       opts.Status,
		Search:       opts.Search,
	}, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}

	for i := range items {
		items[i].CanEdit = s.policy.CanMutate(caller, items[i].MarketerCode)
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	return &LeadListing{
		Items: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
		},
		RequesterCode: models.NormalizeCode(caller.UniqueCode),
	}, nil
}

// GetLead returns a single lead when it falls inside the caller's visible
// scope.
func (s *LeadService) GetLead(ctx context.Context, caller auth.Identity, id uuid.UUID) (*models.Lead, error) {
	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	scope, err := s.policy.VisibleScope(ctx, caller)
	if err != nil {
		return nil, err
	}

	if !scope.Contains(lead.MarketerCode) {
		return nil, apperr.Forbiddenf("lead %s is outside your scope", id)
	}

	lead.CanEdit = s.policy.CanMutate(caller, lead.MarketerCode)
	return lead, nil
}

// Transition applies a status change to a lead. Checks run in a fixed
// order: target validation, existence, ownership. An unauthorized caller is
// told forbidden, never not-found.
func (s *LeadService) Transition(ctx context.Context, caller auth.Identity, id uuid.UUID, target string) (*models.Lead, error) {
	if !models.IsValidStatus(target) {
		return nil, apperr.Validationf("unknown status %q", target)
	}

	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.policy.CanMutate(caller, lead.MarketerCode) {
		return nil, apperr.Forbiddenf("lead %s belongs to %s", id, lead.MarketerCode)
	}

	previous := lead.Status
	if err := s.leads.UpdateStatus(ctx, id, target); err != nil {
		return nil, fmt.Errorf("failed to persist status: %w", err)
	}
	lead.Status = target
	lead.CanEdit = true

	log.Printf("Lead %s: %s -> %s by %s", id, previous, target, caller.UniqueCode)

	if shouldNotify(previous, target) {
		go s.sendLeadNotification(*lead)
	}

	return lead, nil
}

// shouldNotify reports whether a transition warrants telling the owner:
// only an actual change into a terminal state does.
func shouldNotify(previous, next string) bool {
	if previous == next {
		return false
	}
	return next == models.LeadStatusContracted || next == models.LeadStatusCancelled
}

// sendLeadNotification delivers the owner notification on its own context.
// The transition has already committed: failure here is logged and
// swallowed, and delivery is allowed to outlive the originating request.
func (s *LeadService) sendLeadNotification(lead models.Lead) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	owner, err := s.partners.GetByCode(ctx, lead.MarketerCode)
	if err != nil {
		log.Printf("Notify: failed to load lead owner %s: %v", lead.MarketerCode, err)
		return
	}

	event := notify.Event{
		LeadID:       lead.ID.String(),
		MarketerCode: lead.MarketerCode,
		CustomerName: lead.CustomerName,
		Status:       lead.Status,
	}

	target := notify.Target{
		Phone:      owner.Phone,
		WebhookURL: owner.WebhookURL,
	}

	if err := s.notifier.Notify(ctx, target, event); err != nil {
		log.Printf("Notify: failed to deliver lead event for %s: %v", lead.ID, err)
	}
}
