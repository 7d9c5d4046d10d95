package services

import (
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/communitybot/internal/config"
)

// Sender delivers outbound WhatsApp messages
type Sender interface {
	SendWhatsAppMessage(to string, message string) error
}

type TwilioService struct {
	client *twilio.RestClient
	from   string // Your Twilio WhatsApp number
	logger *zap.Logger
}

// NewTwilioService creates a new Twilio service instance
func NewTwilioService(cfg *config.Config, logger *zap.Logger) (*TwilioService, error) {
	if !cfg.TwilioConfigured() {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})

	return &TwilioService{
		client: client,
		from:   cfg.TwilioWhatsAppFrom,
		logger: logger.Named("twilio"),
	}, nil
}

// SendWhatsAppMessage sends a WhatsApp message via Twilio
func (t *TwilioService) SendWhatsAppMessage(to string, message string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(whatsAppAddress(to))
	params.SetBody(message)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		t.logger.Error("failed to send WhatsApp message", zap.String("to", to), zap.Error(err))
		return err
	}
	if resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		return fmt.Errorf("twilio error %d", *resp.ErrorCode)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	t.logger.Debug("WhatsApp message sent", zap.String("to", to), zap.String("sid", sid))
	return nil
}

// LogSender stands in for Twilio when it is not configured: replies are
// logged instead of sent
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger.Named("twilio")}
}

func (l *LogSender) SendWhatsAppMessage(to string, message string) error {
	l.logger.Info("response not sent, Twilio not configured", zap.String("to", to), zap.String("message", message))
	return nil
}

func whatsAppAddress(phone string) string {
	if len(phone) > 9 && phone[:9] == "whatsapp:" {
		return phone
	}
	return "whatsapp:" + phone
}
