package models

// UserRecord is a row of the user directory. The settings column is an opaque
// key-value document; only its "key" entry is exposed here.
type UserRecord struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	From     string `json:"from"`
	Age      int    `json:"age"`
	Key      string `json:"key,omitempty"`
}

// NewUser is the input shape for bulk user creation.
type NewUser struct {
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	Age      int    `json:"age"`
}
