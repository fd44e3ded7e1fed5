package identity

import "context"

type basicContextKey struct{}
type roleAwareContextKey struct{}
type adminContextKey struct{}

// ContextWithBasic stores a Basic identity in the context.
func ContextWithBasic(ctx context.Context, id Basic) context.Context {
	return context.WithValue(ctx, basicContextKey{}, id)
}

// BasicFromContext extracts the Basic identity placed by RequireBasic.
func BasicFromContext(ctx context.Context) (Basic, bool) {
	id, ok := ctx.Value(basicContextKey{}).(Basic)
	return id, ok
}

// ContextWithRoleAware stores a RoleAware identity in the context.
func ContextWithRoleAware(ctx context.Context, id RoleAware) context.Context {
	return context.WithValue(ctx, roleAwareContextKey{}, id)
}

// RoleAwareFromContext extracts the RoleAware identity placed by RequireRoleAware.
func RoleAwareFromContext(ctx context.Context) (RoleAware, bool) {
	id, ok := ctx.Value(roleAwareContextKey{}).(RoleAware)
	return id, ok
}

// ContextWithAdmin stores an Admin identity in the context.
func ContextWithAdmin(ctx context.Context, id Admin) context.Context {
	return context.WithValue(ctx, adminContextKey{}, id)
}

// AdminFromContext extracts the Admin identity placed by RequireAdmin.
func AdminFromContext(ctx context.Context) (Admin, bool) {
	id, ok := ctx.Value(adminContextKey{}).(Admin)
	return id, ok
}
