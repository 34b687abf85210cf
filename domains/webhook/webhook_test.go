package webhook_test

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"sort"
	"strings"
	"testing"

	"github.com/AzielCF/az-wap/domains/webhook"
)

func signTwilio(authToken, fullURL string, form map[string]string) string {
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
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// TestVerifyTwilio_ValidSignature covers the positive half of invariant 10.
func TestVerifyTwilio_ValidSignature(t *testing.T) {
	form := map[string]string{"Body": "hello", "From": "+15551234567"}
	url := "https://gateway.example.com/webhooks/agentA/sms"
	sig := signTwilio("authtoken123", url, form)

	if !webhook.VerifyTwilio("authtoken123", url, form, sig) {
		t.Fatal("expected valid signature to verify")
	}
}

// TestVerifyTwilio_CorruptedSignature covers invariant 10: a corrupted
// signature must never verify, regardless of how close it looks.
func TestVerifyTwilio_CorruptedSignature(t *testing.T) {
	form := map[string]string{"Body": "hello", "From": "+15551234567"}
	url := "https://gateway.example.com/webhooks/agentA/sms"
	sig := signTwilio("authtoken123", url, form)
	corrupted := sig[:len(sig)-1] + "X"

	if webhook.VerifyTwilio("authtoken123", url, form, corrupted) {
		t.Fatal("expected corrupted signature to be rejected")
	}
}

// TestVerifyTwilio_WrongAuthToken covers the case where the signature was
// computed with a different secret than the one configured.
func TestVerifyTwilio_WrongAuthToken(t *testing.T) {
	form := map[string]string{"Body": "hello"}
	url := "https://gateway.example.com/webhooks/agentA/sms"
	sig := signTwilio("wrong-token", url, form)

	if webhook.VerifyTwilio("authtoken123", url, form, sig) {
		t.Fatal("expected signature computed with the wrong token to be rejected")
	}
}

func signLine(channelSecret string, rawBody []byte) string {
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(rawBody)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifyLine_RoundTrip(t *testing.T) {
	secret := "line-channel-secret"
	body := []byte(`{"events":[]}`)

	sig := signLine(secret, body)
	if !webhook.VerifyLine(secret, body, sig) {
		t.Fatal("expected valid LINE signature to verify")
	}
	if webhook.VerifyLine(secret, body, sig[:len(sig)-1]+"X") {
		t.Fatal("expected corrupted LINE signature to be rejected")
	}
}
