package returns

import "goods-return-service/internal/common/validation"

// GetInputSchema declares the wire shape of the notification payload. It
// checks types only; presence and emptiness are enforced by the handler's
// ordered validation steps so that each failure keeps its specific error.
func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"resellerId": {
				Type:        "integer",
				Description: "Reseller the return operation belongs to",
				Minimum:     floatPtr(0),
			},
			"notificationType": {
				Type:        "integer",
				Description: "1 = new position, 2 = status change",
			},
			"clientId": {
				Type:        "integer",
				Description: "Customer-side contractor reference",
			},
			"creatorId": {
				Type:        "integer",
				Description: "Employee who created the return",
			},
			"expertId": {
				Type:        "integer",
				Description: "Employee assigned as expert",
			},
			"complaintId": {
				Type: "integer",
			},
			"complaintNumber": {
				Type:      "string",
				MaxLength: intPtr(255),
			},
			"consumptionId": {
				Type: "integer",
			},
			"consumptionNumber": {
				Type:      "string",
				MaxLength: intPtr(255),
			},
			"agreementNumber": {
				Type:      "string",
				MaxLength: intPtr(255),
			},
			"date": {
				Type:      "string",
				MaxLength: intPtr(64),
			},
			"differences": {
				Type:        "object",
				Description: "Status transition, present only for type 2",
				Properties: map[string]validation.Property{
					"from": {Type: "integer"},
					"to":   {Type: "integer"},
				},
			},
		},
		AdditionalProperties: true,
	}
}

func intPtr(i int) *int {
	return &i
}

func floatPtr(f float64) *float64 {
	return &f
}
