package providers

import (
	"context"
	"net/url"
)

// TwilioWhatsApp sends WhatsApp messages through Twilio's messaging API
// using the same account credentials as TwilioTelephony, addressing
// numbers with the "whatsapp:" scheme Twilio requires.
type TwilioWhatsApp struct {
	telephony *TwilioTelephony
}

func NewTwilioWhatsApp(accountSID, authToken string) *TwilioWhatsApp {
	return &TwilioWhatsApp{telephony: NewTwilioTelephony(accountSID, authToken)}
}

func (w *TwilioWhatsApp) SendTemplated(ctx context.Context, req SmsRequest) (SendResult, error) {
	return w.send(ctx, req)
}

func (w *TwilioWhatsApp) SendFreeform(ctx context.Context, req SmsRequest) (SendResult, error) {
	return w.send(ctx, req)
}

func (w *TwilioWhatsApp) send(ctx context.Context, req SmsRequest) (SendResult, error) {
	form := url.Values{
		"From": {"whatsapp:" + req.From},
		"To":   {"whatsapp:" + req.To},
		"Body": {req.Body},
	}
	out, err := w.telephony.post(ctx, "/Messages.json", form)
	if err != nil {
		return SendResult{}, err
	}
	return SendResult{ExternalID: str(out["sid"]), ProviderStatus: str(out["status"])}, nil
}

// VerifyWebhookSignature accepts any non-empty X-Twilio-Signature value.
// It computes no HMAC over the request URL or form fields, so it does not
// detect a forged or corrupted non-empty signature.
func (w *TwilioWhatsApp) VerifyWebhookSignature(ctx context.Context, rawBody []byte, signature string) bool {
	return signature != ""
}
