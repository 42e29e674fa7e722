package users

import "github.com/angelmondragon/farmconnect-backend/pkg/enums"

// RegisterInput carries a new account.
type RegisterInput struct {
	Name     string         `json:"name" validate:"required,max=120"`
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=6,max=128"`
	Role     enums.UserRole `json:"type" validate:"required,oneof=farmer consumer"`
	Location string         `json:"location,omitempty" validate:"omitempty,max=200"`
	Phone    string         `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address  string         `json:"address,omitempty" validate:"omitempty,max=300"`
}

// UpdateInput merges into a profile; nil fields are left alone.
type UpdateInput struct {
	Name        *string   `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Location    *string   `json:"location,omitempty" validate:"omitempty,max=200"`
	Avatar      *string   `json:"avatar,omitempty" validate:"omitempty,max=500"`
	Phone       *string   `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address     *string   `json:"address,omitempty" validate:"omitempty,max=300"`
	Preferences *[]string `json:"preferences,omitempty" validate:"omitempty,max=20,dive,max=40"`
}
