package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/taskhive/taskhive/internal/platform/httpx"
	"github.com/taskhive/taskhive/internal/token"
)

const bearerPrefix = "Bearer "

// Extractor runs the escalation chain. Each stage consumes the previous
// stage's successful result and either escalates or returns a tagged
// failure, so a route only pays for the tier it declares.
type Extractor struct {
	tokens *token.Service
	users  Directory
}

// NewExtractor constructs an Extractor.
func NewExtractor(tokens *token.Service, users Directory) *Extractor {
	return &Extractor{tokens: tokens, users: users}
}

// Basic requires an Authorization header of exact form "Bearer <token>".
// Missing header, wrong scheme, and any token verification failure all
// surface as ErrUnauthenticated.
func (e *Extractor) Basic(r *http.Request) (Basic, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return Basic{}, fmt.Errorf("%w: missing authorization header", httpx.ErrUnauthenticated)
	}
	raw, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok {
		return Basic{}, fmt.Errorf("%w: authorization header is not a bearer token", httpx.ErrUnauthenticated)
	}
	userID, err := e.tokens.ExtractUserID(raw)
	if err != nil {
		return Basic{}, fmt.Errorf("%w: %s", httpx.ErrUnauthenticated, err)
	}
	return Basic{UserID: userID}, nil
}

// RoleAware escalates Basic with a fresh read of the user's role and
// profile. The read happens on every request: a role revoked or granted
// after token issuance takes effect immediately, and a deleted account
// does not retain access through an outstanding token.
func (e *Extractor) RoleAware(ctx context.Context, r *http.Request) (RoleAware, error) {
	basic, err := e.Basic(r)
	if err != nil {
		return RoleAware{}, err
	}
	profile, err := e.users.FindProfile(ctx, basic.UserID)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return RoleAware{}, fmt.Errorf("%w: user no longer exists", httpx.ErrUnauthenticated)
		}
		return RoleAware{}, err
	}
	return RoleAware{
		UserID: basic.UserID,
		Role:   ParseRole(profile.Role),
		Email:  profile.Email,
		Name:   profile.Name,
	}, nil
}

// Admin escalates RoleAware and requires the admin role. The failure is
// ErrForbidden, deliberately distinct from ErrUnauthenticated, so callers
// can tell "not logged in" from "logged in but insufficient privilege".
func (e *Extractor) Admin(ctx context.Context, r *http.Request) (Admin, error) {
	user, err := e.RoleAware(ctx, r)
	if err != nil {
		return Admin{}, err
	}
	if !user.IsAdmin() {
		return Admin{}, fmt.Errorf("%w: admin privileges required", httpx.ErrForbidden)
	}
	return Admin{Email: user.Email, Name: user.Name}, nil
}
