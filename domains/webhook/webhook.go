// Package webhook implements carrier-ingress signature verification and
// replay protection (spec §4.6 steps 1-3).
package webhook

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"sort"
	"strings"
)

// VerifyTwilio implements Twilio's request-validation scheme: HMAC-SHA1
// over the full URL concatenated with sorted form parameters, base64
// compared against the X-Twilio-Signature header.
func VerifyTwilio(authToken, fullURL string, form map[string]string, signature string) bool {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(form[k])
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyLine implements LINE's channel-secret HMAC-SHA256-over-raw-body
// scheme, base64 compared against the X-Line-Signature header.
func VerifyLine(channelSecret string, rawBody []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(rawBody)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// CanonicalURL normalizes a request URL the same way across proxies so
// Twilio's signature (computed against its own view of the public URL)
// can be compared against ours.
func CanonicalURL(base, path string, query url.Values) string {
	u := strings.TrimRight(base, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
