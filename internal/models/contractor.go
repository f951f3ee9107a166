package models

// ContractorType distinguishes the parties a return operation touches.
type ContractorType int

const (
	ContractorTypeCustomer ContractorType = 1
	ContractorTypeReseller ContractorType = 2
)

// Seller is the reseller a return operation belongs to.
type Seller struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Client is the customer-side contractor of a return operation.
type Client struct {
	ID         int            `json:"id"`
	Name       string         `json:"name"`
	FullName   string         `json:"fullName"`
	Email      string         `json:"email"`
	Mobile     string         `json:"mobile"`
	Type       ContractorType `json:"type"`
	ResellerID int            `json:"resellerId"`
}

// Employee is a reseller-side staff member (creator or expert).
type Employee struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// DisplayName resolves the human-readable name: full name when present,
// otherwise the raw name field.
func (c *Client) DisplayName() string {
	if c.FullName != "" {
		return c.FullName
	}
	return c.Name
}

func (e *Employee) DisplayName() string {
	if e.FullName != "" {
		return e.FullName
	}
	return e.Name
}
