package services

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"strings"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

// voterTokenBytes is the entropy of a minted voter token, hex encoded.
const voterTokenBytes = 16

// identityResolver derives the voter identity of a request. The fingerprint
// is a heuristic that discourages casual repeat voting; clearing cookies and
// switching networks defeats it.
type identityResolver struct {
	salt []byte
}

func NewIdentityResolver(salt string) ports.IdentityResolver {
	return &identityResolver{
		salt: []byte(salt),
	}
}

func (r *identityResolver) Resolve(pollID string, meta ports.RequestMeta) (domain.Identity, bool, error) {
	identity := domain.Identity{
		Token:       meta.Token,
		Fingerprint: r.fingerprint(pollID, ClientIP(meta.ForwardedFor, meta.RemoteAddr), meta.UserAgent),
	}

	if validVoterToken(identity.Token) {
		return identity, false, nil
	}

	token, err := newVoterToken()
	if err != nil {
		return domain.Identity{}, false, err
	}
	identity.Token = token
	return identity, true, nil
}

func (r *identityResolver) fingerprint(pollID, ip, userAgent string) string {
	h := hmac.New(sha256.New, r.salt)
	h.Write([]byte(pollID + "|" + ip + "|" + userAgent))
	return hex.EncodeToString(h.Sum(nil))
}

// ClientIP returns the first X-Forwarded-For hop, falling back to the
// connection address without its port.
func ClientIP(forwardedFor, remoteAddr string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func newVoterToken() (string, error) {
	b := make([]byte, voterTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate voter token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func validVoterToken(token string) bool {
	if len(token) != voterTokenBytes*2 {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil && strings.ToLower(token) == token
}
