package api

// RegisterRequest is the payload for creating a new account.
// All five fields are required.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// RegisterResponse is returned on successful registration.
type RegisterResponse struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// LoginRequest is the payload for obtaining a token pair.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenPairResponse carries a freshly issued access/refresh pair.
type TokenPairResponse struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
	ExpiresIn    int64  `json:"expires_in"` // access token lifetime in seconds
}

// RefreshRequest is the payload for minting a new access token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh"`
}

// AccessTokenResponse is returned by the refresh endpoint.
type AccessTokenResponse struct {
	AccessToken string `json:"access"`
	ExpiresIn   int64  `json:"expires_in"`
}

// LogoutRequest carries the refresh token to blacklist.
type LogoutRequest struct {
	RefreshToken string `json:"refresh"`
}

// ChangePasswordRequest is the payload for changing the caller's password.
// Username is optional; when present it must match the authenticated account.
type ChangePasswordRequest struct {
	OldPassword             string `json:"old_password"`
	NewPassword             string `json:"new_password"`
	NewPasswordConfirmation string `json:"new_password_confirmation"`
	Username                string `json:"username,omitempty"`
}

// PasswordResetRequest asks for a reset email to be sent.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest consumes a reset token and sets a new password.
type PasswordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// MessageResponse is a generic success envelope.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the error envelope for all endpoints. Fields holds
// per-field validation messages keyed by the JSON field name.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
