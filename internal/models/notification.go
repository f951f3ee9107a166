package models

import "fmt"

// NotificationType enumerates the recognized return-notification kinds.
type NotificationType int

const (
	NotificationTypeNew    NotificationType = 1
	NotificationTypeChange NotificationType = 2
)

// Valid reports whether the value is a recognized enum member.
func (t NotificationType) Valid() bool {
	return t == NotificationTypeNew || t == NotificationTypeChange
}

// StatusCode is a return-position status. Zero means "not set".
type StatusCode int

const (
	StatusPending   StatusCode = 1
	StatusRejected  StatusCode = 2
	StatusCompleted StatusCode = 3
)

// Name returns the human-readable status name used in notifications.
func (s StatusCode) Name() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusRejected:
		return "Rejected"
	case StatusCompleted:
		return "Completed"
	default:
		return fmt.Sprintf("Status#%d", int(s))
	}
}

// EventChangeReturnStatus is the notification event attached to every
// outbound message of the return workflow.
const EventChangeReturnStatus = "changeReturnStatus"

// StatusChange carries the from/to codes of a status transition. Present in
// a request only when the notification type is CHANGE.
type StatusChange struct {
	From StatusCode `json:"from"`
	To   StatusCode `json:"to"`
}

// NotificationRequest is the incoming change-of-status payload.
type NotificationRequest struct {
	ResellerID        int              `json:"resellerId"`
	NotificationType  NotificationType `json:"notificationType"`
	ClientID          int              `json:"clientId"`
	CreatorID         int              `json:"creatorId"`
	ExpertID          int              `json:"expertId"`
	ComplaintID       int              `json:"complaintId"`
	ComplaintNumber   string           `json:"complaintNumber"`
	ConsumptionID     int              `json:"consumptionId"`
	ConsumptionNumber string           `json:"consumptionNumber"`
	AgreementNumber   string           `json:"agreementNumber"`
	Date              string           `json:"date"`
	Differences       *StatusChange    `json:"differences,omitempty"`
}

// SMSResult reflects the SMS channel outcome for one request.
type SMSResult struct {
	IsSent  bool   `json:"isSent"`
	Message string `json:"message"`
}

// NotificationResult accumulates the per-channel outcome of one request.
// Constructed once, mutated in place as each channel is attempted.
type NotificationResult struct {
	EmployeeByEmail bool      `json:"notificationEmployeeByEmail"`
	ClientByEmail   bool      `json:"notificationClientByEmail"`
	ClientBySMS     SMSResult `json:"notificationClientBySms"`
}

// TemplateData is the flat template-key to resolved-value mapping consumed by
// the messaging gateway and template service.
type TemplateData map[string]string
