package ports

import "github.com/vncsmyrnk/livepoll/internal/core/domain"

// RequestMeta is what the transport knows about the caller.
type RequestMeta struct {
	RemoteAddr   string
	ForwardedFor string
	UserAgent    string
	Token        string
}

type IdentityResolver interface {
	// Resolve returns the voter identity for a poll. issued reports that a
	// new token was minted and must be handed back to the client.
	Resolve(pollID string, meta RequestMeta) (identity domain.Identity, issued bool, err error)
}
