package ledger

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenFromQuery(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "token=abc", want: "abc"},
		{raw: "token=%20abc%20", want: "abc"},
		{raw: "other=1", want: ""},
		{raw: "token=", want: ""},
	}
	for _, tt := range tests {
		q, err := url.ParseQuery(tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, TokenFromQuery(q), tt.raw)
	}
}

func TestStripToken(t *testing.T) {
	u, err := url.Parse("http://localhost:8080/?token=abc&theme=dark")
	require.NoError(t, err)

	stripped := StripToken(u)
	assert.Equal(t, "http://localhost:8080/?theme=dark", stripped.String())
	assert.Equal(t, "token=abc&theme=dark", u.RawQuery, "input must not be modified")

	u, err = url.Parse("/?token=abc")
	require.NoError(t, err)
	assert.Equal(t, "/", StripToken(u).String())
}

func TestNewTokenIsUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tok := NewToken()
		assert.Len(t, tok, 32)
		assert.False(t, seen[tok])
		seen[tok] = true
	}
}

func TestRedeemURL(t *testing.T) {
	got, err := RedeemURL("http://localhost:8080/", "abc")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/?token=abc", got)

	_, err = RedeemURL("://bad", "abc")
	require.Error(t, err)
}
