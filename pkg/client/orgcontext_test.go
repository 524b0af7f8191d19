package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faultline-io/faultline/pkg/event"
)

var testOrg = event.Organization{ID: 42, Slug: "baz"}

func TestBindOrganizationContext(t *testing.T) {
	scope := NewScope()
	BindOrganizationContext(scope, testOrg)

	tag, ok := scope.Tag("organization")
	require.True(t, ok)
	assert.Equal(t, "42", tag)

	slug, ok := scope.Tag("organization.slug")
	require.True(t, ok)
	assert.Equal(t, "baz", slug)

	ctx, ok := scope.Context("organization")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"id": int64(42), "slug": "baz"}, ctx)
}

func TestBindOrganizationContextWithHook(t *testing.T) {
	SetOrganizationContextHook(func(scope *Scope, org event.Organization) {
		scope.SetTag("organization.test", "1")
	})
	t.Cleanup(func() { SetOrganizationContextHook(nil) })

	scope := NewScope()
	BindOrganizationContext(scope, testOrg)

	tag, ok := scope.Tag("organization.test")
	require.True(t, ok)
	assert.Equal(t, "1", tag)
}

func TestBindOrganizationContextWithPanickingHook(t *testing.T) {
	SetOrganizationContextHook(func(scope *Scope, org event.Organization) {
		var zero int
		_ = 1 / zero
	})
	t.Cleanup(func() { SetOrganizationContextHook(nil) })

	scope := NewScope()
	require.NotPanics(t, func() {
		BindOrganizationContext(scope, testOrg)
	})

	// Mandatory fields were applied before the hook ran.
	tag, ok := scope.Tag("organization")
	require.True(t, ok)
	assert.Equal(t, "42", tag)

	ctx, ok := scope.Context("organization")
	require.True(t, ok)
	assert.Equal(t, int64(42), ctx["id"])
}
