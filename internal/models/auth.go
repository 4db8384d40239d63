package models

// LoginRequest defines the structure for login requests
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest defines the structure for signup requests
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone" binding:"required"`
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	Token   string   `json:"token"`
	Account *Account `json:"user"`
}

// Principal is the authenticated caller extracted from a session token.
type Principal struct {
	AccountID string
	Email     string
	Role      Role
}
