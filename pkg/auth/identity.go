package auth

import (
	"context"
	"errors"
	"slices"

	"github.com/lestrrat-go/jwx/v3/jwt"
)

// RoleClaim is the token claim holding the caller's role.
const RoleClaim = "role"

var ErrMissingSubject = errors.New("token has no subject claim")

// Identity is the authenticated caller as established by the auth gate.
type Identity struct {
	Subject string
	Roles   []string
}

// HasRole reports whether the identity carries role.
func (i Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

// IdentityFromToken extracts the subject and role claims of a verified token.
// The role claim may be a single string or a list of strings.
func IdentityFromToken(token jwt.Token) (Identity, error) {
	subject, ok := token.Subject()
	if !ok || subject == "" {
		return Identity{}, ErrMissingSubject
	}
	id := Identity{Subject: subject}

	var role string
	if err := token.Get(RoleClaim, &role); err == nil && role != "" {
		id.Roles = append(id.Roles, role)
		return id, nil
	}
	var roles []string
	if err := token.Get(RoleClaim, &roles); err == nil {
		id.Roles = append(id.Roles, roles...)
	}
	return id, nil
}

type identityKey struct{}

// WithIdentity stores the identity in the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
