package provider

import (
	"context"

	"github.com/owtlabs/owt/internal/auth/domain"
)

// Provider abstracts one external OAuth identity provider. Implementations
// drive the authorization-code flow and normalize the upstream profile into
// a domain.ExternalIdentity.
type Provider interface {
	// Name is the stable lowercase identifier used in routes and in the
	// linked_identities table (e.g. "naver").
	Name() string

	// AuthCodeURL builds the upstream authorization URL for the given
	// anti-forgery state value.
	AuthCodeURL(state string) string

	// Exchange trades the callback code for upstream tokens and fetches the
	// user profile. Any upstream failure must come back as an error; a
	// returned identity is always fully populated.
	Exchange(ctx context.Context, code string) (domain.ExternalIdentity, error)
}
