package returns

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goods-return-service/internal/common/errors"
	"goods-return-service/internal/common/logger"
	"goods-return-service/internal/messaging"
	"goods-return-service/internal/models"
)

// MockDirectory implements directory.EntityDirectory for tests.
type MockDirectory struct {
	SellerByIDFunc        func(ctx context.Context, id int) (*models.Seller, error)
	ClientByIDFunc        func(ctx context.Context, id int) (*models.Client, error)
	EmployeeByIDFunc      func(ctx context.Context, id int) (*models.Employee, error)
	ResellerEmailFromFunc func(ctx context.Context, resellerID int) (string, error)
	EmailsByPermitFunc    func(ctx context.Context, resellerID int, permit string) ([]string, error)

	lookups int
}

func (m *MockDirectory) SellerByID(ctx context.Context, id int) (*models.Seller, error) {
	m.lookups++
	if m.SellerByIDFunc != nil {
		return m.SellerByIDFunc(ctx, id)
	}
	return &models.Seller{ID: id, Name: "Reseller"}, nil
}

func (m *MockDirectory) ClientByID(ctx context.Context, id int) (*models.Client, error) {
	m.lookups++
	if m.ClientByIDFunc != nil {
		return m.ClientByIDFunc(ctx, id)
	}
	return &models.Client{
		ID: id, Name: "Client", FullName: "Client Full",
		Email: "client@example.com", Mobile: "+15550001111",
		Type: models.ContractorTypeCustomer, ResellerID: 1,
	}, nil
}

func (m *MockDirectory) EmployeeByID(ctx context.Context, id int) (*models.Employee, error) {
	m.lookups++
	if m.EmployeeByIDFunc != nil {
		return m.EmployeeByIDFunc(ctx, id)
	}
	return &models.Employee{ID: id, Name: "Employee", FullName: "Employee Full"}, nil
}

func (m *MockDirectory) ResellerEmailFrom(ctx context.Context, resellerID int) (string, error) {
	if m.ResellerEmailFromFunc != nil {
		return m.ResellerEmailFromFunc(ctx, resellerID)
	}
	return "returns@reseller.example.com", nil
}

func (m *MockDirectory) EmailsByPermit(ctx context.Context, resellerID int, permit string) ([]string, error) {
	if m.EmailsByPermitFunc != nil {
		return m.EmailsByPermitFunc(ctx, resellerID, permit)
	}
	return []string{"emp1@reseller.example.com", "emp2@reseller.example.com"}, nil
}

// MockRenderer echoes the key so sends can be asserted without real templates.
type MockRenderer struct {
	RenderFunc func(key string, params map[string]string, resellerID int) (string, error)
}

func (m *MockRenderer) Render(key string, params map[string]string, resellerID int) (string, error) {
	if m.RenderFunc != nil {
		return m.RenderFunc(key, params, resellerID)
	}
	return "rendered:" + key, nil
}

type MockMessagesClient struct {
	SendEmailFunc func(ctx context.Context, msg messaging.EmailMessage) error
	sent          []messaging.EmailMessage
}

func (m *MockMessagesClient) SendEmail(ctx context.Context, msg messaging.EmailMessage) error {
	m.sent = append(m.sent, msg)
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, msg)
	}
	return nil
}

type MockNotificationManager struct {
	SendFunc func(ctx context.Context, req messaging.SMSRequest) (bool, string)
	calls    []messaging.SMSRequest
}

func (m *MockNotificationManager) Send(ctx context.Context, req messaging.SMSRequest) (bool, string) {
	m.calls = append(m.calls, req)
	if m.SendFunc != nil {
		return m.SendFunc(ctx, req)
	}
	return true, ""
}

func newTestHandler(t *testing.T, dir *MockDirectory, messages *MockMessagesClient,
	manager *MockNotificationManager) *Handler {

	return NewHandler(
		&Config{EmployeePermit: "tsGoodsReturn", Timeout: 30 * time.Second},
		dir, &MockRenderer{}, messages, manager, logger.NewTestLogger(t),
	)
}

func validRequest() *models.NotificationRequest {
	return &models.NotificationRequest{
		ResellerID:        1,
		NotificationType:  models.NotificationTypeChange,
		ClientID:          42,
		CreatorID:         7,
		ExpertID:          8,
		ComplaintID:       100,
		ComplaintNumber:   "C-100",
		ConsumptionID:     200,
		ConsumptionNumber: "K-200",
		AgreementNumber:   "A-300",
		Date:              "2026-08-28",
		Differences: &models.StatusChange{
			From: models.StatusPending,
			To:   models.StatusCompleted,
		},
	}
}

func TestProcess_EmptyResellerIsSoftFailure(t *testing.T) {
	dir := &MockDirectory{}
	handler := newTestHandler(t, dir, &MockMessagesClient{}, &MockNotificationManager{})

	req := validRequest()
	req.ResellerID = 0

	result, err := handler.Process(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "Empty resellerId", result.ClientBySMS.Message)
	assert.False(t, result.ClientBySMS.IsSent)
	assert.False(t, result.EmployeeByEmail)
	assert.False(t, result.ClientByEmail)
	assert.Zero(t, dir.lookups, "soft failure must not touch the directory")
}

func TestProcess_UnknownNotificationType(t *testing.T) {
	handler := newTestHandler(t, &MockDirectory{}, &MockMessagesClient{}, &MockNotificationManager{})

	req := validRequest()
	req.NotificationType = 0

	_, err := handler.Process(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidArgument(err))
	assert.Contains(t, err.Error(), "Empty notificationType")
}

func TestProcess_MissingEntities(t *testing.T) {
	tests := []struct {
		name    string
		dir     *MockDirectory
		wantMsg string
	}{
		{
			name: "seller absent",
			dir: &MockDirectory{
				SellerByIDFunc: func(ctx context.Context, id int) (*models.Seller, error) { return nil, nil },
			},
			wantMsg: "Seller not found!",
		},
		{
			name: "client absent",
			dir: &MockDirectory{
				ClientByIDFunc: func(ctx context.Context, id int) (*models.Client, error) { return nil, nil },
			},
			wantMsg: "Client not found!",
		},
		{
			name: "client is not a customer",
			dir: &MockDirectory{
				ClientByIDFunc: func(ctx context.Context, id int) (*models.Client, error) {
					return &models.Client{ID: id, Type: models.ContractorTypeReseller, ResellerID: 1}, nil
				},
			},
			wantMsg: "Client not found!",
		},
		{
			name: "client belongs to another reseller",
			dir: &MockDirectory{
				ClientByIDFunc: func(ctx context.Context, id int) (*models.Client, error) {
					return &models.Client{ID: id, Type: models.ContractorTypeCustomer, ResellerID: 99}, nil
				},
			},
			wantMsg: "Client not found!",
		},
		{
			name: "creator absent",
			dir: &MockDirectory{
				EmployeeByIDFunc: func(ctx context.Context, id int) (*models.Employee, error) {
					if id == 7 {
						return nil, nil
					}
					return &models.Employee{ID: id, Name: "Expert"}, nil
				},
			},
			wantMsg: "Creator not found!",
		},
		{
			name: "expert absent",
			dir: &MockDirectory{
				EmployeeByIDFunc: func(ctx context.Context, id int) (*models.Employee, error) {
					if id == 8 {
						return nil, nil
					}
					return &models.Employee{ID: id, Name: "Creator"}, nil
				},
			},
			wantMsg: "Expert not found!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestHandler(t, tt.dir, &MockMessagesClient{}, &MockNotificationManager{})

			_, err := handler.Process(context.Background(), validRequest())
			require.Error(t, err)
			assert.True(t, errors.IsNotFound(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestProcess_EmptyTemplateFieldRejectsBeforeSending(t *testing.T) {
	messages := &MockMessagesClient{}
	manager := &MockNotificationManager{}
	handler := newTestHandler(t, &MockDirectory{}, messages, manager)

	req := validRequest()
	req.Date = ""

	_, err := handler.Process(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidState(err))
	assert.Contains(t, err.Error(), "Template Data (DATE) is empty!")

	assert.Empty(t, messages.sent, "no email may leave before validation passes")
	assert.Empty(t, manager.calls, "no sms may leave before validation passes")
}

func TestProcess_ChangeDispatchesAllChannels(t *testing.T) {
	messages := &MockMessagesClient{}
	manager := &MockNotificationManager{}
	handler := newTestHandler(t, &MockDirectory{}, messages, manager)

	result, err := handler.Process(context.Background(), validRequest())
	require.NoError(t, err)

	assert.True(t, result.EmployeeByEmail)
	assert.True(t, result.ClientByEmail)
	assert.True(t, result.ClientBySMS.IsSent)
	assert.Empty(t, result.ClientBySMS.Message)

	// Two employee emails plus one client email.
	require.Len(t, messages.sent, 3)
	assert.Equal(t, "emp1@reseller.example.com", messages.sent[0].To)
	assert.Equal(t, "emp2@reseller.example.com", messages.sent[1].To)
	assert.Equal(t, "client@example.com", messages.sent[2].To)
	assert.Equal(t, models.EventChangeReturnStatus, messages.sent[2].Event)
	assert.Equal(t, models.StatusCompleted, messages.sent[2].Status)

	require.Len(t, manager.calls, 1)
	assert.Equal(t, 42, manager.calls[0].ClientID)
	assert.Equal(t, "C-100", manager.calls[0].TemplateData["COMPLAINT_NUMBER"])
}

func TestProcess_NewTypeSkipsClientChannels(t *testing.T) {
	messages := &MockMessagesClient{}
	manager := &MockNotificationManager{}
	handler := newTestHandler(t, &MockDirectory{}, messages, manager)

	req := validRequest()
	req.NotificationType = models.NotificationTypeNew
	req.Differences = nil

	result, err := handler.Process(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, result.EmployeeByEmail)
	assert.False(t, result.ClientByEmail)
	assert.False(t, result.ClientBySMS.IsSent)

	require.Len(t, messages.sent, 2)
	assert.Empty(t, manager.calls)
}

func TestProcess_ChangeWithoutNewStatusSkipsClientChannels(t *testing.T) {
	messages := &MockMessagesClient{}
	manager := &MockNotificationManager{}
	handler := newTestHandler(t, &MockDirectory{}, messages, manager)

	req := validRequest()
	req.Differences.To = 0

	result, err := handler.Process(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, result.ClientByEmail)
	assert.False(t, result.ClientBySMS.IsSent)
	require.Len(t, messages.sent, 2)
	assert.Empty(t, manager.calls)
}

func TestProcess_NoFromAddressSkipsEmails(t *testing.T) {
	dir := &MockDirectory{
		ResellerEmailFromFunc: func(ctx context.Context, resellerID int) (string, error) {
			return "", nil
		},
	}
	messages := &MockMessagesClient{}
	manager := &MockNotificationManager{}
	handler := newTestHandler(t, dir, messages, manager)

	result, err := handler.Process(context.Background(), validRequest())
	require.NoError(t, err)

	assert.False(t, result.EmployeeByEmail)
	assert.False(t, result.ClientByEmail)
	assert.Empty(t, messages.sent)

	// SMS does not depend on the from-address.
	assert.True(t, result.ClientBySMS.IsSent)
	require.Len(t, manager.calls, 1)
}

func TestProcess_EmailGatewayErrorPropagates(t *testing.T) {
	messages := &MockMessagesClient{
		SendEmailFunc: func(ctx context.Context, msg messaging.EmailMessage) error {
			return assert.AnError
		},
	}
	handler := newTestHandler(t, &MockDirectory{}, messages, &MockNotificationManager{})

	_, err := handler.Process(context.Background(), validRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestProcess_SMSFailureIsSoft(t *testing.T) {
	manager := &MockNotificationManager{
		SendFunc: func(ctx context.Context, req messaging.SMSRequest) (bool, string) {
			return false, "provider unreachable"
		},
	}
	handler := newTestHandler(t, &MockDirectory{}, &MockMessagesClient{}, manager)

	result, err := handler.Process(context.Background(), validRequest())
	require.NoError(t, err, "sms failures must not fail the operation")

	assert.False(t, result.ClientBySMS.IsSent)
	assert.Equal(t, "provider unreachable", result.ClientBySMS.Message)
	assert.True(t, result.EmployeeByEmail)
	assert.True(t, result.ClientByEmail)
}

func TestProcess_ClientWithoutMobileSkipsSMS(t *testing.T) {
	dir := &MockDirectory{
		ClientByIDFunc: func(ctx context.Context, id int) (*models.Client, error) {
			return &models.Client{
				ID: id, Name: "Client", Email: "client@example.com",
				Type: models.ContractorTypeCustomer, ResellerID: 1,
			}, nil
		},
	}
	manager := &MockNotificationManager{}
	handler := newTestHandler(t, dir, &MockMessagesClient{}, manager)

	result, err := handler.Process(context.Background(), validRequest())
	require.NoError(t, err)

	assert.True(t, result.ClientByEmail)
	assert.False(t, result.ClientBySMS.IsSent)
	assert.Empty(t, manager.calls)
}

func TestProcessPayload_SchemaRejectsWrongTypes(t *testing.T) {
	handler := newTestHandler(t, &MockDirectory{}, &MockMessagesClient{}, &MockNotificationManager{})

	tests := []struct {
		name    string
		payload string
	}{
		{"resellerId as string", `{"resellerId": "1", "notificationType": 2}`},
		{"notificationType as float", `{"resellerId": 1, "notificationType": 2.5}`},
		{"differences as array", `{"resellerId": 1, "notificationType": 2, "differences": [1, 3]}`},
		{"not an object", `[1, 2, 3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handler.ProcessPayload(context.Background(), []byte(tt.payload))
			require.Error(t, err)
			assert.True(t, errors.IsInvalidArgument(err))
		})
	}
}

func TestProcessPayload_ValidJSONReachesProcess(t *testing.T) {
	handler := newTestHandler(t, &MockDirectory{}, &MockMessagesClient{}, &MockNotificationManager{})

	// resellerId 0 takes the soft path, proving the payload decoded cleanly.
	result, err := handler.ProcessPayload(context.Background(),
		[]byte(`{"resellerId": 0, "notificationType": 2}`))
	require.NoError(t, err)
	assert.Equal(t, "Empty resellerId", result.ClientBySMS.Message)
}
