package auth

import (
	"context"
	"fmt"
)

// Principal identifies a key-holding actor: a donor, a campaign creator, a
// verifier, or a component acting on its own behalf.
type Principal string

// Authenticator is the identity substrate. RequireAuth succeeds only if the
// caller holds the private key of p and approved exactly this call; a
// failure aborts the whole operation.
type Authenticator interface {
	RequireAuth(ctx context.Context, p Principal) error
}

// StaticAuthenticator trusts the declared principal. It stands in for the
// host signature check in local deployments and the seeder; swap in a real
// substrate behind the same interface for anything else.
type StaticAuthenticator struct{}

func (StaticAuthenticator) RequireAuth(_ context.Context, p Principal) error {
	if p == "" {
		return fmt.Errorf("empty principal")
	}
	return nil
}

var _ Authenticator = StaticAuthenticator{}
