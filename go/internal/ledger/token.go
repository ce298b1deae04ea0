package ledger

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// TokenParam is the query parameter carrying a token.
const TokenParam = "token"

// TokenFromQuery extracts the trimmed token from a page's query string.
func TokenFromQuery(q url.Values) string {
	return strings.TrimSpace(q.Get(TokenParam))
}

// StripToken returns a copy of u without the token parameter, so that
// reloading it does not attempt the redemption again.
func StripToken(u *url.URL) *url.URL {
	stripped := *u
	q := stripped.Query()
	q.Del(TokenParam)
	stripped.RawQuery = q.Encode()
	return &stripped
}

// NewToken mints an opaque single-use token.
func NewToken() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// RedeemURL builds the controller address that redeems token when opened.
func RedeemURL(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	q := u.Query()
	q.Set(TokenParam, token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
