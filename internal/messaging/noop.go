package messaging

import (
	"context"

	"goods-return-service/internal/common/logger"
)

// Disabled channel implementations, used when a gateway is turned off in
// configuration. Emails are acknowledged without delivery; SMS reports a
// non-sent outcome.

type DisabledMessagesClient struct {
	logger logger.Logger
}

func NewDisabledMessagesClient(log logger.Logger) *DisabledMessagesClient {
	return &DisabledMessagesClient{logger: log}
}

func (c *DisabledMessagesClient) SendEmail(_ context.Context, msg EmailMessage) error {
	c.logger.Warn("email channel disabled, dropping message", map[string]interface{}{
		"to":         msg.To,
		"resellerId": msg.ResellerID,
	})
	return nil
}

type DisabledNotificationManager struct {
	logger logger.Logger
}

func NewDisabledNotificationManager(log logger.Logger) *DisabledNotificationManager {
	return &DisabledNotificationManager{logger: log}
}

func (m *DisabledNotificationManager) Send(_ context.Context, req SMSRequest) (bool, string) {
	m.logger.Warn("sms channel disabled, dropping message", map[string]interface{}{
		"clientId":   req.ClientID,
		"resellerId": req.ResellerID,
	})
	return false, "sms channel disabled"
}
