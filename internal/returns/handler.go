// Package returns implements the return-notification operation: validate the
// change-of-status payload, resolve the entities it references, assemble the
// template data and fan out employee/client notifications.
package returns

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"goods-return-service/internal/common/errors"
	"goods-return-service/internal/common/logger"
	"goods-return-service/internal/common/metrics"
	"goods-return-service/internal/common/validation"
	"goods-return-service/internal/directory"
	"goods-return-service/internal/messaging"
	"goods-return-service/internal/models"
	"goods-return-service/internal/template"
)

type Handler struct {
	config    *Config
	directory directory.EntityDirectory
	renderer  template.Renderer
	messages  messaging.MessagesClient
	manager   messaging.NotificationManager
	logger    logger.Logger
}

func NewHandler(config *Config, dir directory.EntityDirectory, renderer template.Renderer,
	messages messaging.MessagesClient, manager messaging.NotificationManager, log logger.Logger) *Handler {

	return &Handler{
		config:    config,
		directory: dir,
		renderer:  renderer,
		messages:  messages,
		manager:   manager,
		logger:    log.WithFields(map[string]interface{}{"component": "return-notification"}),
	}
}

// ProcessPayload validates the raw JSON shape, decodes it and runs Process
// under the configured timeout.
func (h *Handler) ProcessPayload(ctx context.Context, raw []byte) (*models.NotificationResult, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.NewInvalidArgumentError("request body is not a JSON object", err.Error())
	}

	if res := validation.ValidateInput(payload, GetInputSchema()); !res.Valid {
		first := res.Errors[0]
		return nil, errors.NewInvalidArgumentError(
			fmt.Sprintf("invalid field %s: %s", first.Field, first.Message),
			first.Code,
		)
	}

	var req models.NotificationRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, errors.NewInvalidArgumentError("request body does not decode", err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	return h.Process(ctx, &req)
}

// Process runs the single validate, resolve, dispatch pass for one request.
// No state is retained between invocations.
func (h *Handler) Process(ctx context.Context, req *models.NotificationRequest) (*models.NotificationResult, error) {
	start := time.Now()
	result := &models.NotificationResult{}

	// Missing resellerId is a soft failure: a normal result with a message,
	// no lookups, no sends.
	if req.ResellerID == 0 {
		result.ClientBySMS.Message = "Empty resellerId"
		h.logger.Warn("request without resellerId", nil)
		metrics.NotificationDuration.WithLabelValues("soft_reject").Observe(time.Since(start).Seconds())
		return result, nil
	}

	if !req.NotificationType.Valid() {
		return nil, errors.NewInvalidArgumentError("Empty notificationType",
			fmt.Sprintf("notificationType: %d", req.NotificationType))
	}

	seller, err := h.directory.SellerByID(ctx, req.ResellerID)
	if err != nil {
		return nil, err
	}
	if seller == nil {
		return nil, errors.NewNotFoundError("Seller not found!",
			fmt.Sprintf("resellerId: %d", req.ResellerID))
	}

	client, err := h.directory.ClientByID(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil || client.Type != models.ContractorTypeCustomer || client.ResellerID != req.ResellerID {
		return nil, errors.NewNotFoundError("Client not found!",
			fmt.Sprintf("clientId: %d", req.ClientID))
	}

	creator, err := h.directory.EmployeeByID(ctx, req.CreatorID)
	if err != nil {
		return nil, err
	}
	if creator == nil {
		return nil, errors.NewNotFoundError("Creator not found!",
			fmt.Sprintf("creatorId: %d", req.CreatorID))
	}

	expert, err := h.directory.EmployeeByID(ctx, req.ExpertID)
	if err != nil {
		return nil, err
	}
	if expert == nil {
		return nil, errors.NewNotFoundError("Expert not found!",
			fmt.Sprintf("expertId: %d", req.ExpertID))
	}

	differences, err := h.differencesText(req)
	if err != nil {
		return nil, err
	}

	data, err := buildTemplateData(req, client.DisplayName(), creator, expert, differences)
	if err != nil {
		return nil, err
	}

	if err := h.dispatch(ctx, req, client, data, result); err != nil {
		metrics.NotificationDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, err
	}

	metrics.NotificationDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	return result, nil
}

// dispatch runs only after validation: employee emails first, then the client
// email/SMS pair when the status actually changed.
func (h *Handler) dispatch(ctx context.Context, req *models.NotificationRequest,
	client *models.Client, data models.TemplateData, result *models.NotificationResult) error {

	emailFrom, err := h.directory.ResellerEmailFrom(ctx, req.ResellerID)
	if err != nil {
		return err
	}
	emails, err := h.directory.EmailsByPermit(ctx, req.ResellerID, h.config.EmployeePermit)
	if err != nil {
		return err
	}

	if emailFrom != "" {
		for _, to := range emails {
			subject, err := h.renderer.Render(template.KeyEmployeeEmailSubject, data, req.ResellerID)
			if err != nil {
				return err
			}
			body, err := h.renderer.Render(template.KeyEmployeeEmailBody, data, req.ResellerID)
			if err != nil {
				return err
			}

			// Gateway errors propagate: there is no retry or partial
			// recovery for employee notifications.
			if err := h.messages.SendEmail(ctx, messaging.EmailMessage{
				From:       emailFrom,
				To:         to,
				Subject:    subject,
				Body:       body,
				ResellerID: req.ResellerID,
				Event:      models.EventChangeReturnStatus,
			}); err != nil {
				return err
			}
			result.EmployeeByEmail = true
		}
	}

	// Client notifications go out only on an actual status change.
	if req.NotificationType != models.NotificationTypeChange ||
		req.Differences == nil || req.Differences.To == 0 {
		return nil
	}

	if emailFrom != "" && client.Email != "" {
		subject, err := h.renderer.Render(template.KeyClientEmailSubject, data, req.ResellerID)
		if err != nil {
			return err
		}
		body, err := h.renderer.Render(template.KeyClientEmailBody, data, req.ResellerID)
		if err != nil {
			return err
		}

		if err := h.messages.SendEmail(ctx, messaging.EmailMessage{
			From:       emailFrom,
			To:         client.Email,
			Subject:    subject,
			Body:       body,
			ResellerID: req.ResellerID,
			ClientID:   client.ID,
			Event:      models.EventChangeReturnStatus,
			Status:     req.Differences.To,
		}); err != nil {
			return err
		}
		result.ClientByEmail = true
	}

	if client.Mobile != "" {
		sent, errText := h.manager.Send(ctx, messaging.SMSRequest{
			ResellerID:   req.ResellerID,
			ClientID:     client.ID,
			Event:        models.EventChangeReturnStatus,
			Status:       req.Differences.To,
			TemplateData: data,
		})
		result.ClientBySMS.IsSent = sent
		if errText != "" {
			result.ClientBySMS.Message = errText
		}
	}

	return nil
}
