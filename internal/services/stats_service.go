package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"partner-office/internal/apperr"
	"partner-office/internal/models"
	"partner-office/internal/repository"

	"github.com/shopspring/decimal"
)

// maxConcurrentCounts caps the read-only count fan-out so a large sub-tree
// cannot flood the storage collaborator.
const maxConcurrentCounts = 8

// LeadStats is the scoped status breakdown response shape.
type LeadStats struct {
	Total             int64            `json:"total"`
	ByStatus          map[string]int64 `json:"by_status"`
	ContractedRevenue decimal.Decimal  `json:"contracted_revenue"`
}

// DescendantSummary is one row of the per-descendant tree listing.
type DescendantSummary struct {
	Code      string    `json:"code"`
	LeadCount int64     `json:"lead_count"`
	Nickname  string    `json:"nickname"`
	Level     int       `json:"level"`
	JoinedAt  time.Time `json:"joined_at"`
}

// StatsService aggregates lead counts over a resolved scope.
type StatsService struct {
	leads     *repository.LeadRepository
	partners  *repository.PartnerRepository
	hierarchy *HierarchyService
}

func NewStatsService(
	leads *repository.LeadRepository,
	partners *repository.PartnerRepository,
	hierarchy *HierarchyService,
) *StatsService {
	return &StatsService{
		leads:     leads,
		partners:  partners,
		hierarchy: hierarchy,
	}
}

// Stats computes the total and per-status lead counts over the scope: one
// count per status plus one unfiltered count, issued as independent
// read-only queries. Kept as uniform single-status counts rather than one
// grouped query; the five queries run concurrently. The counts match stored
// values exactly, so a row holding a value outside the lifecycle shows up
// in Total but in no by_status bucket.
func (s *StatsService) Stats(ctx context.Context, scope Scope) (*LeadStats, error) {
	base := repository.LeadFilter{
		Codes:        scope.Codes,
		Unrestricted: scope.Unrestricted,
	}

	stats := &LeadStats{
		ByStatus: make(map[string]int64, len(models.LeadStatuses)),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	errChan := make(chan error, len(models.LeadStatuses)+2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		total, err := s.leads.Count(ctx, base)
		if err != nil {
			errChan <- fmt.Errorf("failed to count leads: %w", err)
			return
		}
		mu.Lock()
		stats.Total = total
		mu.Unlock()
	}()

	for _, status := range models.LeadStatuses {
		wg.Add(1)
		go func(status string) {
			defer wg.Done()
			filter := base
			filter.Status = status
			count, err := s.leads.Count(ctx, filter)
			if err != nil {
				errChan <- fmt.Errorf("failed to count %s leads: %w", status, err)
				return
			}
			mu.Lock()
			stats.ByStatus[status] = count
			mu.Unlock()
		}(status)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		filter := base
		filter.Status = models.LeadStatusContracted
		revenue, err := s.leads.SumQuotedPrice(ctx, filter)
		if err != nil {
			errChan <- fmt.Errorf("failed to sum contracted revenue: %w", err)
			return
		}
		mu.Lock()
		stats.ContractedRevenue = revenue
		mu.Unlock()
	}()

	wg.Wait()
	close(errChan)

	for err := range errChan {
		return nil, err
	}

	return stats, nil
}

// PerDescendant resolves the descendants of rootCode and produces one
// summary row per descendant partner: profile fields plus that partner's
// own lead count. One count query per descendant, bounded by a worker cap;
// fine at tens to low hundreds of descendants.
func (s *StatsService) PerDescendant(ctx context.Context, rootCode string) ([]DescendantSummary, error) {
	codes, err := s.hierarchy.ResolveDescendants(ctx, rootCode)
	if err != nil {
		return nil, err
	}

	summaries := make([]*DescendantSummary, len(codes))
	sem := make(chan struct{}, maxConcurrentCounts)
	errChan := make(chan error, len(codes))
	var wg sync.WaitGroup

	for i, code := range codes {
		wg.Add(1)
		go func(i int, code string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			partner, err := s.partners.GetByCode(ctx, code)
			if errors.Is(err, apperr.ErrNotFound) {
				// A resolved code without a partner row can only come from
				// corrupted edges; the integrity audit reports those.
				return
			}
			if err != nil {
				errChan <- fmt.Errorf("failed to load partner %s: %w", code, err)
				return
			}

			count, err := s.leads.Count(ctx, repository.LeadFilter{Codes: []string{code}})
			if err != nil {
				errChan <- fmt.Errorf("failed to count leads for %s: %w", code, err)
				return
			}

			summaries[i] = &DescendantSummary{
				Code:      partner.UniqueCode,
				LeadCount: count,
				Nickname:  partner.Nickname,
				Level:     partner.Level,
				JoinedAt:  partner.CreatedAt,
			}
		}(i, code)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		return nil, err
	}

	result := make([]DescendantSummary, 0, len(summaries))
	for _, summary := range summaries {
		if summary != nil {
			result = append(result, *summary)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Level != result[j].Level {
			return result[i].Level < result[j].Level
		}
		return result[i].Code < result[j].Code
	})

	return result, nil
}
