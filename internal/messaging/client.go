// Package messaging is the outbound gateway for email and SMS delivery.
package messaging

import (
	"context"
	"fmt"

	"goods-return-service/internal/common/logger"
	"goods-return-service/internal/common/metrics"
	"goods-return-service/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"
)

// SESAPI and SNSAPI mirror the SDK surface used here, for mocking.
type SESAPI interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type SNSAPI interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// EmailMessage is one outbound email with its routing metadata.
type EmailMessage struct {
	From       string
	To         string
	Subject    string
	Body       string
	ResellerID int
	ClientID   int
	Event      string
	Status     models.StatusCode
}

// MessagesClient delivers email notifications. Send failures propagate to the
// caller; there is no retry layer here.
type MessagesClient interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

// SMSRequest addresses an SMS by the entities involved; the manager resolves
// the actual mobile contact itself.
type SMSRequest struct {
	ResellerID   int
	ClientID     int
	Event        string
	Status       models.StatusCode
	TemplateData models.TemplateData
}

// NotificationManager delivers client SMS notifications. The outcome is soft:
// a success flag plus error text, never a propagated error.
type NotificationManager interface {
	Send(ctx context.Context, req SMSRequest) (sent bool, errText string)
}

// ClientResolver is the subset of the entity directory the SMS channel needs.
type ClientResolver interface {
	ClientByID(ctx context.Context, id int) (*models.Client, error)
}

// SESMessagesClient implements MessagesClient on AWS SES.
type SESMessagesClient struct {
	ses    SESAPI
	logger logger.Logger
}

func NewSESMessagesClient(api SESAPI, log logger.Logger) *SESMessagesClient {
	return &SESMessagesClient{
		ses:    api,
		logger: log.WithFields(map[string]interface{}{"component": "messages-client"}),
	}
}

func (c *SESMessagesClient) SendEmail(ctx context.Context, msg EmailMessage) error {
	messageID := uuid.New().String()

	_, err := c.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(msg.Body)},
				Html: &types.Content{Data: aws.String(msg.Body)},
			},
		},
		Source: aws.String(msg.From),
		Tags: []types.MessageTag{
			{Name: aws.String("event"), Value: aws.String(msg.Event)},
			{Name: aws.String("messageId"), Value: aws.String(messageID)},
		},
	})
	if err != nil {
		metrics.NotificationsSent.WithLabelValues("email", "failed").Inc()
		return fmt.Errorf("ses send: %w", err)
	}

	metrics.NotificationsSent.WithLabelValues("email", "sent").Inc()
	c.logger.Info("email sent", map[string]interface{}{
		"messageId":  messageID,
		"to":         msg.To,
		"resellerId": msg.ResellerID,
		"event":      msg.Event,
	})
	return nil
}

// SNSNotificationManager implements NotificationManager on AWS SNS.
type SNSNotificationManager struct {
	sns      SNSAPI
	clients  ClientResolver
	senderID string
	logger   logger.Logger
}

func NewSNSNotificationManager(api SNSAPI, clients ClientResolver, senderID string, log logger.Logger) *SNSNotificationManager {
	return &SNSNotificationManager{
		sns:      api,
		clients:  clients,
		senderID: senderID,
		logger:   log.WithFields(map[string]interface{}{"component": "notification-manager"}),
	}
}

func (m *SNSNotificationManager) Send(ctx context.Context, req SMSRequest) (bool, string) {
	client, err := m.clients.ClientByID(ctx, req.ClientID)
	if err != nil {
		metrics.NotificationsSent.WithLabelValues("sms", "failed").Inc()
		return false, err.Error()
	}
	if client == nil || client.Mobile == "" {
		metrics.NotificationsSent.WithLabelValues("sms", "skipped").Inc()
		return false, "client has no mobile contact"
	}

	input := &sns.PublishInput{
		PhoneNumber: aws.String(client.Mobile),
		Message:     aws.String(smsText(req)),
	}
	if m.senderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {DataType: aws.String("String"), StringValue: aws.String(m.senderID)},
		}
	}

	if _, err := m.sns.Publish(ctx, input); err != nil {
		metrics.NotificationsSent.WithLabelValues("sms", "failed").Inc()
		m.logger.Warn("sms send failed", map[string]interface{}{
			"clientId":   req.ClientID,
			"resellerId": req.ResellerID,
			"error":      err.Error(),
		})
		return false, err.Error()
	}

	metrics.NotificationsSent.WithLabelValues("sms", "sent").Inc()
	return true, ""
}

func smsText(req SMSRequest) string {
	number := req.TemplateData["COMPLAINT_NUMBER"]
	differences := req.TemplateData["DIFFERENCES"]
	if differences == "" {
		return fmt.Sprintf("Return %s: status is now %s.", number, req.Status.Name())
	}
	return fmt.Sprintf("Return %s: %s", number, differences)
}
