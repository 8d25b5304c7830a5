package services

import (
	"context"
	"fmt"

	"partner-office/internal/models"
	"partner-office/internal/repository"
)

// HierarchyService resolves the referral tree. A partner P is a child of C
// iff P.ReferrerCode == C.UniqueCode; descendants are everything reachable
// by following child edges, the root included.
type HierarchyService struct {
	partners *repository.PartnerRepository
}

func NewHierarchyService(partners *repository.PartnerRepository) *HierarchyService {
	return &HierarchyService{partners: partners}
}

// ResolveDescendants computes the set of codes reachable from rootCode,
// rootCode itself included. It prefers the storage's batched recursive query
// and falls back to per-level BFS; both produce the same set. A storage
// error aborts the whole resolution.
func (s *HierarchyService) ResolveDescendants(ctx context.Context, rootCode string) ([]string, error) {
	root := models.NormalizeCode(rootCode)

	if s.partners.SupportsRecursiveResolve() {
		codes, err := s.partners.DescendantCodes(ctx, root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve descendants of %s: %w", root, err)
		}
		return ensureRoot(codes, root), nil
	}

	return s.resolveBFS(ctx, root)
}

// resolveBFS walks the children relation one level at a time. The visited
// set keeps the walk terminating even when a corrupted referrer edge forms a
// cycle: an already-seen code is never re-enqueued.
func (s *HierarchyService) resolveBFS(ctx context.Context, root string) ([]string, error) {
	visited := map[string]bool{root: true}
	result := []string{root}
	frontier := []string{root}

	for len(frontier) > 0 {
		children, err := s.partners.ChildrenOf(ctx, frontier)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve descendants of %s: %w", root, err)
		}

		frontier = frontier[:0]
		for _, child := range children {
			code := models.NormalizeCode(child.UniqueCode)
			if visited[code] {
				continue
			}
			visited[code] = true
			result = append(result, code)
			frontier = append(frontier, code)
		}
	}

	return result, nil
}

// ensureRoot guarantees the contract that the root code is always part of
// the resolved set, even when no partner row exists for it.
func ensureRoot(codes []string, root string) []string {
	for _, code := range codes {
		if models.NormalizeCode(code) == root {
			return codes
		}
	}
	return append(codes, root)
}
