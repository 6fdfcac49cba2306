package identity

import (
	"github.com/sodfa-app/sodfa-server/pkg/apperror"
)

// Class is the identity class of the current actor. Exactly one class
// applies per request.
type Class int

const (
	// ClassAuthenticated is a durable account.
	ClassAuthenticated Class = iota + 1
	// ClassShadow is a store-issued ephemeral session without credentials.
	ClassShadow
	// ClassPseudo is a client-local token never seen by the identity provider.
	ClassPseudo
)

func (c Class) String() string {
	switch c {
	case ClassAuthenticated:
		return "authenticated"
	case ClassShadow:
		return "shadow"
	case ClassPseudo:
		return "pseudo"
	default:
		return "unknown"
	}
}

// Session is what the identity provider vouches for on this request:
// either a durable account or an ephemeral guest session.
type Session struct {
	UID         string
	DisplayName string
	Email       string
	Ephemeral   bool
}

// Identity is the resolution outcome used for attribution and ownership.
type Identity struct {
	Class       Class
	OwnerKey    string
	DisplayName string
	IsAnonymous bool
}

// Trackable reports whether the reaction ledger keeps a per-owner row for
// this actor. Pseudo identities degrade to untracked counter bumps.
func (i Identity) Trackable() bool {
	return i.Class == ClassAuthenticated || i.Class == ClassShadow
}

const (
	// FallbackVisitor is shown for accounts without a display name.
	FallbackVisitor = "visitor"
	// FallbackAnonymous is the display literal for shadow and pseudo actors.
	FallbackAnonymous = "anonymous visitor"

	pseudoKeyPrefix = "client_"
)

// PseudoOwnerKey derives the reaction-ownership key for a pseudo token.
func PseudoOwnerKey(token string) string {
	return pseudoKeyPrefix + token
}

// Resolve picks the identity class for the current actor. A present pseudo
// token outranks an ephemeral session so that attribution stays stable
// across ephemeral-session churn; a durable account outranks both.
func Resolve(session *Session, pseudoToken string) (Identity, error) {
	if session != nil && !session.Ephemeral {
		name := session.DisplayName
		if name == "" {
			name = FallbackVisitor
		}
		return Identity{
			Class:       ClassAuthenticated,
			OwnerKey:    session.UID,
			DisplayName: name,
			IsAnonymous: false,
		}, nil
	}

	if pseudoToken != "" {
		return Identity{
			Class:       ClassPseudo,
			OwnerKey:    PseudoOwnerKey(pseudoToken),
			DisplayName: FallbackAnonymous,
			IsAnonymous: true,
		}, nil
	}

	if session != nil && session.Ephemeral {
		return Identity{
			Class:       ClassShadow,
			OwnerKey:    session.UID,
			DisplayName: FallbackAnonymous,
			IsAnonymous: true,
		}, nil
	}

	// Callers must obtain a pseudo token or create an ephemeral session
	// before touching the ledgers; never silently defaulted here.
	return Identity{}, apperror.ErrIdentityUnavailable
}
