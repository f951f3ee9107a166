package returns

import (
	"fmt"
	"strconv"

	"goods-return-service/internal/common/errors"
	"goods-return-service/internal/models"
	"goods-return-service/internal/template"
)

// Template keys, in the order they are assembled and checked.
const (
	TplComplaintID       = "COMPLAINT_ID"
	TplComplaintNumber   = "COMPLAINT_NUMBER"
	TplCreatorID         = "CREATOR_ID"
	TplCreatorName       = "CREATOR_NAME"
	TplExpertID          = "EXPERT_ID"
	TplExpertName        = "EXPERT_NAME"
	TplClientID          = "CLIENT_ID"
	TplClientName        = "CLIENT_NAME"
	TplConsumptionID     = "CONSUMPTION_ID"
	TplConsumptionNumber = "CONSUMPTION_NUMBER"
	TplAgreementNumber   = "AGREEMENT_NUMBER"
	TplDate              = "DATE"
	TplDifferences       = "DIFFERENCES"
	TplResellerID        = "RESELLER_ID"
)

// differencesText renders the human-readable change description: a fixed
// "new position" message for NEW, the from/to transition for CHANGE with a
// differences block, and "" otherwise.
func (h *Handler) differencesText(req *models.NotificationRequest) (string, error) {
	switch {
	case req.NotificationType == models.NotificationTypeNew:
		return h.renderer.Render(template.KeyNewPositionAdded, map[string]string{
			TplResellerID: strconv.Itoa(req.ResellerID),
		}, req.ResellerID)

	case req.NotificationType == models.NotificationTypeChange && req.Differences != nil:
		return h.renderer.Render(template.KeyPositionStatusHasChanged, map[string]string{
			"FROM": req.Differences.From.Name(),
			"TO":   req.Differences.To.Name(),
		}, req.ResellerID)

	default:
		return "", nil
	}
}

// buildTemplateData assembles the flat template mapping. Every value must be
// non-empty after coercion or the request is rejected before any send.
func buildTemplateData(req *models.NotificationRequest, clientName string,
	creator, expert *models.Employee, differences string) (models.TemplateData, error) {

	ordered := []struct {
		key   string
		value string
	}{
		{TplComplaintID, intValue(req.ComplaintID)},
		{TplComplaintNumber, req.ComplaintNumber},
		{TplCreatorID, intValue(req.CreatorID)},
		{TplCreatorName, creator.DisplayName()},
		{TplExpertID, intValue(req.ExpertID)},
		{TplExpertName, expert.DisplayName()},
		{TplClientID, intValue(req.ClientID)},
		{TplClientName, clientName},
		{TplConsumptionID, intValue(req.ConsumptionID)},
		{TplConsumptionNumber, req.ConsumptionNumber},
		{TplAgreementNumber, req.AgreementNumber},
		{TplDate, req.Date},
		{TplDifferences, differences},
	}

	data := make(models.TemplateData, len(ordered))
	for _, field := range ordered {
		if field.value == "" {
			return nil, errors.NewInvalidStateError(
				fmt.Sprintf("Template Data (%s) is empty!", field.key),
				"",
			)
		}
		data[field.key] = field.value
	}

	return data, nil
}

// intValue coerces an integer field, treating zero as empty.
func intValue(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
