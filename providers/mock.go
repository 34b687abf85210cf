package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockTelephony is the demo-mode Telephony adapter: no network calls, a
// deterministic in-memory number inventory, a signature check that rejects
// only the literal signature "invalid", and a FailBuyAfter hook that makes
// BuyNumber fail (used by S4's rollback scenario in spec §8).
type MockTelephony struct {
	mu           sync.Mutex
	nextSeq      int
	FailBuyAfter int // if >0, BuyNumber fails starting at this call count (test hook)
	buyCalls     int
}

func NewMockTelephony() *MockTelephony {
	return &MockTelephony{}
}

func (m *MockTelephony) SendSms(ctx context.Context, req SmsRequest) (SendResult, error) {
	return SendResult{ExternalID: "mock-sms-" + uuid.NewString(), ProviderStatus: "queued", Cost: 0.0075}, nil
}

func (m *MockTelephony) MakeCall(ctx context.Context, req CallRequest) (CallResult, error) {
	return CallResult{CallSID: "mock-call-" + uuid.NewString(), ProviderStatus: "queued"}, nil
}

func (m *MockTelephony) BuyNumber(ctx context.Context, country string, caps []NumberCapability) (BoughtNumber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buyCalls++
	if m.FailBuyAfter > 0 && m.buyCalls >= m.FailBuyAfter {
		return BoughtNumber{}, fmt.Errorf("mock carrier: no inventory for %s", country)
	}
	m.nextSeq++
	return BoughtNumber{
		PhoneNumber: fmt.Sprintf("+1555000%04d", m.nextSeq),
		ProviderSID: "mock-num-" + uuid.NewString(),
	}, nil
}

func (m *MockTelephony) ReleaseNumber(ctx context.Context, providerSID string) error {
	return nil
}

func (m *MockTelephony) ConfigureWebhooks(ctx context.Context, providerSID, baseURL string) error {
	return nil
}

func (m *MockTelephony) VerifyWebhookSignature(ctx context.Context, url string, form map[string]string, signature string) bool {
	return signature != "invalid"
}

func (m *MockTelephony) TransferCall(ctx context.Context, callSID, to string) error {
	return nil
}

type MockEmail struct{}

func NewMockEmail() *MockEmail { return &MockEmail{} }

func (m *MockEmail) Send(ctx context.Context, req EmailRequest) (SendResult, error) {
	return SendResult{ExternalID: "mock-email-" + uuid.NewString(), ProviderStatus: "sent", Cost: 0.001}, nil
}

func (m *MockEmail) VerifySignature(ctx context.Context, rawBody []byte, signature string) bool {
	return signature != "invalid"
}

type MockWhatsApp struct{}

func NewMockWhatsApp() *MockWhatsApp { return &MockWhatsApp{} }

func (m *MockWhatsApp) SendTemplated(ctx context.Context, req SmsRequest) (SendResult, error) {
	return SendResult{ExternalID: "mock-wa-" + uuid.NewString(), ProviderStatus: "sent", Cost: 0.01}, nil
}

func (m *MockWhatsApp) SendFreeform(ctx context.Context, req SmsRequest) (SendResult, error) {
	return SendResult{ExternalID: "mock-wa-" + uuid.NewString(), ProviderStatus: "sent", Cost: 0.005}, nil
}

func (m *MockWhatsApp) VerifyWebhookSignature(ctx context.Context, rawBody []byte, signature string) bool {
	return signature != "invalid"
}

type MockTTS struct{}

func NewMockTTS() *MockTTS { return &MockTTS{} }

func (m *MockTTS) Synthesize(ctx context.Context, text, voice, language string) ([]byte, error) {
	// A minimal deterministic placeholder payload; real adapters call
	// ElevenLabs and return actual WAV bytes.
	return []byte("RIFF....WAVEmock:" + text), nil
}

// MockStorage keeps uploaded artifacts in memory and returns URLs under the
// same host's /storage/{key} route. That route (the Storage handler in
// ui/rest/metrics.go) reads files from the storage directory on disk, not
// from this map.
type MockStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	baseURL string
}

func NewMockStorage(baseURL string) *MockStorage {
	return &MockStorage{objects: make(map[string][]byte), baseURL: baseURL}
}

func (m *MockStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return m.baseURL + "/storage/" + key, nil
}

func (m *MockStorage) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	return data, ok
}

// NewMockSet builds a full demo-mode provider Set.
func NewMockSet(baseURL string) Set {
	return Set{
		Telephony: NewMockTelephony(),
		Email:     NewMockEmail(),
		WhatsApp:  NewMockWhatsApp(),
		TTS:       NewMockTTS(),
		Storage:   NewMockStorage(baseURL),
	}
}
