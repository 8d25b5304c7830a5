package services

import (
	"context"
	"fmt"
	"sort"

	"partner-office/internal/models"
	"partner-office/internal/repository"
)

// IntegrityReport is the result of a referral-edge audit.
type IntegrityReport struct {
	Partners      int      `json:"partners"`
	DanglingEdges []string `json:"dangling_edges"`
	CycleCodes    []string `json:"cycle_codes"`
}

// Clean reports whether the edge set forms a well-formed forest.
func (r *IntegrityReport) Clean() bool {
	return len(r.DanglingEdges) == 0 && len(r.CycleCodes) == 0
}

// IntegrityService audits the referral edge set. Nothing enforces the
// forest invariant at write time for rows created outside this service, so
// the audit runs as a separate pass outside the hot resolution path; the
// resolver's visited guard is only a safety net.
type IntegrityService struct {
	partners *repository.PartnerRepository
}

func NewIntegrityService(partners *repository.PartnerRepository) *IntegrityService {
	return &IntegrityService{partners: partners}
}

// CheckEdges loads every partner edge and reports referrer codes that point
// at no partner (dangling) and codes that sit on a referrer cycle.
func (s *IntegrityService) CheckEdges(ctx context.Context) (*IntegrityReport, error) {
	partners, err := s.partners.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load partners: %w", err)
	}

	parent := make(map[string]string, len(partners))
	exists := make(map[string]bool, len(partners))
	for _, p := range partners {
		code := models.NormalizeCode(p.UniqueCode)
		exists[code] = true
		if p.ReferrerCode != nil && *p.ReferrerCode != "" {
			parent[code] = models.NormalizeCode(*p.ReferrerCode)
		}
	}

	report := &IntegrityReport{Partners: len(partners)}

	dangling := make(map[string]bool)
	for code, ref := range parent {
		if !exists[ref] {
			dangling[code] = true
		}
	}

	// A code sits on a cycle iff walking its ancestor chain comes back to
	// it. The seen set terminates walks that merge into someone else's
	// cycle without passing through the starting code.
	cyclic := make(map[string]bool)
	for code := range parent {
		seen := map[string]bool{code: true}
		current := code
		for {
			next, ok := parent[current]
			if !ok {
				break
			}
			if next == code {
				cyclic[code] = true
				break
			}
			if seen[next] {
				break
			}
			seen[next] = true
			current = next
		}
	}

	for code := range dangling {
		report.DanglingEdges = append(report.DanglingEdges, code)
	}
	for code := range cyclic {
		report.CycleCodes = append(report.CycleCodes, code)
	}
	sort.Strings(report.DanglingEdges)
	sort.Strings(report.CycleCodes)

	return report, nil
}
