package auth

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChallenges(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []Challenge
	}{
		{
			name:  "quoted realm",
			value: `Basic realm="Android SDK"`,
			want:  []Challenge{{Scheme: "Basic", Params: map[string]string{"realm": "Android SDK"}}},
		},
		{
			name:  "token realm",
			value: `Basic realm=proxy`,
			want:  []Challenge{{Scheme: "Basic", Params: map[string]string{"realm": "proxy"}}},
		},
		{
			name:  "escaped quote and charset",
			value: `Basic realm="say \"hi\"", charset="UTF-8"`,
			want:  []Challenge{{Scheme: "Basic", Params: map[string]string{"realm": `say "hi"`, "charset": "UTF-8"}}},
		},
		{
			name:  "several challenges",
			value: `Negotiate, NTLM abc==, Basic realm="corp"`,
			want: []Challenge{
				{Scheme: "Negotiate", Params: map[string]string{}},
				{Scheme: "NTLM", Params: map[string]string{"": "abc=="}},
				{Scheme: "Basic", Params: map[string]string{"realm": "corp"}},
			},
		},
		{
			name:  "params then next scheme",
			value: `Bearer error="invalid_token", realm=api, Basic realm="fallback"`,
			want: []Challenge{
				{Scheme: "Bearer", Params: map[string]string{"error": "invalid_token", "realm": "api"}},
				{Scheme: "Basic", Params: map[string]string{"realm": "fallback"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChallenges([]string{tt.value})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseChallengesErrors(t *testing.T) {
	for _, v := range []string{"", "  ,  ", `Basic realm="open`, `="x"`} {
		_, err := ParseChallenges([]string{v})
		assert.Error(t, err, v)
	}
}

func TestBasicRealm(t *testing.T) {
	h := http.Header{}
	h.Add(WWWAuthenticate, `Bearer realm="api"`)
	h.Add(WWWAuthenticate, `basic realm="site"`)
	realm, err := BasicRealm(h, WWWAuthenticate)
	require.NoError(t, err)
	assert.Equal(t, "site", realm)

	_, err = BasicRealm(h, ProxyAuthenticate)
	var ce *ChallengeError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ProxyAuthenticate, ce.Header)
}

func TestBasicRealmMissingRealm(t *testing.T) {
	h := http.Header{}
	h.Set(ProxyAuthenticate, `Basic charset="UTF-8"`)
	_, err := BasicRealm(h, ProxyAuthenticate)
	assert.ErrorContains(t, err, "no realm")
}

func TestBasicHeaderRoundTrip(t *testing.T) {
	creds := Credentials{Username: "alice", Password: "pass:with:colons"}
	v := BasicHeader(creds)
	assert.Equal(t, "Basic YWxpY2U6cGFzczp3aXRoOmNvbG9ucw==", v)
	got, ok := DecodeBasic(v)
	require.True(t, ok)
	assert.Equal(t, creds, got)

	req, _ := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	SetBasicAuth(req, Authorization, creds)
	user, pass, ok := req.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, creds, Credentials{Username: user, Password: pass})
}

func TestDecodeBasicRejects(t *testing.T) {
	for _, v := range []string{"", "Bearer abc", "Basic !!!", "Basic YWxpY2U="} {
		_, ok := DecodeBasic(v)
		assert.False(t, ok, v)
	}
}
