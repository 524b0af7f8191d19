package client

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/faultline-io/faultline/common/logging"
	"github.com/faultline-io/faultline/pkg/event"
)

// OrganizationContextHook is an optional callback invoked after the
// mandatory organization fields have been bound to a scope. Deployments
// register one to attach extra tags or context of their own.
type OrganizationContextHook func(scope *Scope, org event.Organization)

var (
	orgHookMu sync.RWMutex
	orgHook   OrganizationContextHook
)

// SetOrganizationContextHook registers the hook. Pass nil to clear it.
func SetOrganizationContextHook(hook OrganizationContextHook) {
	orgHookMu.Lock()
	orgHook = hook
	orgHookMu.Unlock()
}

// BindOrganizationContext attaches the organization's identity to the
// scope: tag "organization" (the id), tag "organization.slug", and a
// structured context "organization" with id and slug. The registered
// hook runs afterwards inside a guarded block; a hook panic is
// recovered and logged so the mandatory fields always survive.
func BindOrganizationContext(scope *Scope, org event.Organization) {
	scope.SetTag("organization", strconv.FormatInt(org.ID, 10))
	scope.SetTag("organization.slug", org.Slug)
	scope.SetContext("organization", map[string]any{
		"id":   org.ID,
		"slug": org.Slug,
	})

	orgHookMu.RLock()
	hook := orgHook
	orgHookMu.RUnlock()
	if hook == nil {
		return
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				logging.Default().Error("organization context hook failed",
					logging.Error(fmt.Errorf("%v", r)),
					"organization", org.Slug)
			}
		}()
		hook(scope, org)
	}()
}
