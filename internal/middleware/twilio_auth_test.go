package middleware

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testToken = "12345"

func newApp(token string) *fiber.App {
	app := fiber.New()
	ok := func(c *fiber.Ctx) error { return c.SendString("ok") }
	app.Post("/webhook/whatsapp", ValidateTwilioSignature(token, zap.NewNop()), ok)
	app.Post("/myapp.php", ValidateTwilioSignature(token, zap.NewNop()), ok)
	return app
}

func signedRequest(target string, form url.Values, signature string) *http.Request {
	req := httptest.NewRequest("POST", target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if signature != "" {
		req.Header.Set("X-Twilio-Signature", signature)
	}
	return req
}

// sign computes X-Twilio-Signature: base64 HMAC-SHA1 of the URL followed by
// the sorted form keys and values
func sign(token, target string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := target
	for _, k := range keys {
		data += k + form.Get(k)
	}
	h := hmac.New(sha1.New, []byte(token))
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func TestValidateTwilioSignature(t *testing.T) {
	const target = "http://bot.example.com/webhook/whatsapp"
	form := url.Values{"From": {"whatsapp:+919800000001"}, "Body": {"hi"}}
	valid := sign(testToken, target, form)

	tests := []struct {
		name      string
		token     string
		form      url.Values
		signature string
		want      int
	}{
		{"valid signature", testToken, form, valid, fiber.StatusOK},
		{"signed with explicit port", testToken, form, sign(testToken, "http://bot.example.com:80/webhook/whatsapp", form), fiber.StatusOK},
		{"missing signature", testToken, form, "", fiber.StatusUnauthorized},
		{"wrong signature", testToken, form, "bm9wZQ==", fiber.StatusUnauthorized},
		{"tampered body", testToken, url.Values{"From": {"whatsapp:+919800000001"}, "Body": {"bye"}}, valid, fiber.StatusUnauthorized},
		{"signed with another token", "other", form, valid, fiber.StatusUnauthorized},
		{"no token configured", "", form, valid, fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := newApp(tt.token).Test(signedRequest(target, tt.form, tt.signature))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

// Signature published for Twilio's request validation example
func TestValidateTwilioSignature_KnownVector(t *testing.T) {
	form := url.Values{
		"Digits":                {"1234"},
		"CallSid":               {"CA1234567890ABCDE"},
		"To":                    {"+18005551212"},
		"Caller":                {"+14158675309"},
		"From":                  {"+14158675309"},
		"ReasonConferenceEnded": {"test"},
		"Reason":                {"Participant"},
	}
	const target = "http://mycompany.com/myapp.php?foo=1&bar=2"

	resp, err := newApp(testToken).Test(signedRequest(target, form, "n2xBNyzSW7rfYStDtOFiFMv7qNo="))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, "n2xBNyzSW7rfYStDtOFiFMv7qNo=", sign(testToken, target, form))
}
