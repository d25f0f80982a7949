package models

// Caller is the authenticated identity passed explicitly into every workflow operation.
type Caller struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }
