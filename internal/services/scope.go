package services

import (
	"context"
	"fmt"

	"partner-office/internal/apperr"
	"partner-office/internal/auth"
	"partner-office/internal/models"
)

// Scope is the request-lifetime set of codes a caller may view. It is
// recomputed on every request, never cached or persisted.
type Scope struct {
	RootCode     string
	Codes        []string
	Unrestricted bool
}

// Contains reports whether code is inside the visible scope.
func (s Scope) Contains(code string) bool {
	if s.Unrestricted {
		return true
	}
	normalized := models.NormalizeCode(code)
	for _, c := range s.Codes {
		if models.NormalizeCode(c) == normalized {
			return true
		}
	}
	return false
}

// ScopePolicy derives what a caller may view and mutate from its role and
// position in the referral tree.
type ScopePolicy struct {
	hierarchy *HierarchyService
}

func NewScopePolicy(hierarchy *HierarchyService) *ScopePolicy {
	return &ScopePolicy{hierarchy: hierarchy}
}

// VisibleScope computes the caller's visible code set: the full recruited
// sub-tree for a partner, unrestricted for an administrator.
func (p *ScopePolicy) VisibleScope(ctx context.Context, caller auth.Identity) (Scope, error) {
	root := models.NormalizeCode(caller.UniqueCode)

	if caller.IsAdministrator() {
		return Scope{RootCode: root, Unrestricted: true}, nil
	}

	codes, err := p.hierarchy.ResolveDescendants(ctx, root)
	if err != nil {
		return Scope{}, fmt.Errorf("failed to compute visible scope: %w", err)
	}

	return Scope{RootCode: root, Codes: codes}, nil
}

// Narrow intersects the visible scope with an explicit single code or the
// "only mine" toggle. Narrowing never widens: a requested code outside the
// visible set is a forbidden error, not an extension of it.
func (p *ScopePolicy) Narrow(scope Scope, caller auth.Identity, requestedCode string, onlyMine bool) (Scope, error) {
	if onlyMine {
		return Scope{
			RootCode: scope.RootCode,
			Codes:    []string{models.NormalizeCode(caller.UniqueCode)},
		}, nil
	}

	if requestedCode != "" {
		code := models.NormalizeCode(requestedCode)
		if !scope.Contains(code) {
			return Scope{}, apperr.Forbiddenf("code %s is outside your scope", code)
		}
		return Scope{RootCode: scope.RootCode, Codes: []string{code}}, nil
	}

	return scope, nil
}

// CanMutate reports whether the caller may mutate a lead owned by
// ownerCode. Partners mutate their own leads only, even though they can see
// their descendants'; administrators mutate anything.
func (p *ScopePolicy) CanMutate(caller auth.Identity, ownerCode string) bool {
	if caller.IsAdministrator() {
		return true
	}
	return models.NormalizeCode(caller.UniqueCode) == models.NormalizeCode(ownerCode)
}
