// AngelaMos | 2026
// dto.go

package auth

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=1,max=128"`
}

type SuperAdminLoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=1,max=128"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,min=1,max=128"`
	NewPassword     string `json:"new_password"     validate:"required,min=12,max=128"`
}

type LoginResponse struct {
	UserID   string  `json:"user_id"`
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	Role     string  `json:"role"`
	TenantID *string `json:"tenant_id,omitempty"`
}

type SuperAdminLoginResponse struct {
	Email string `json:"email"`
}
