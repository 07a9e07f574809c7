package auth

import (
	"context"
	"fmt"

	"github.com/Akshaybondre123/AutoMobile-sub000/internal/domain"
)

type contextKey string

const (
	tenantScopeKey contextKey = "tenantScope"
	advisorKey     contextKey = "advisorID"
)

// ContextWithTenantScope returns a new context carrying the authenticated
// tenant scope.
func ContextWithTenantScope(ctx context.Context, scope domain.TenantScope) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, tenantScopeKey, scope)
}

// TenantScopeFromContext retrieves the authenticated tenant scope, if any.
func TenantScopeFromContext(ctx context.Context) (domain.TenantScope, bool) {
	if ctx == nil {
		return domain.TenantScope{}, false
	}
	scope, ok := ctx.Value(tenantScopeKey).(domain.TenantScope)
	if !ok || scope.Validate() != nil {
		return domain.TenantScope{}, false
	}
	return scope, true
}

// ContextWithAdvisor returns a new context carrying a restricted advisor
// identity. Requests in restricted mode only see that advisor's bookings.
func ContextWithAdvisor(ctx context.Context, advisorID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, advisorKey, advisorID)
}

// AdvisorFromContext retrieves the restricted advisor identity, if any.
func AdvisorFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	advisorID, ok := ctx.Value(advisorKey).(string)
	if !ok || advisorID == "" {
		return "", false
	}
	return advisorID, true
}

// EnforceTenantScope ensures the requested scope matches the authenticated
// one when present.
func EnforceTenantScope(ctx context.Context, scope domain.TenantScope) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	authenticated, ok := TenantScopeFromContext(ctx)
	if !ok {
		return nil
	}
	if authenticated != scope {
		return fmt.Errorf("scope %s does not match authenticated scope", scope)
	}
	return nil
}
