package dto

type RegisterDTO struct {
	Name     string `json:"name"     validate:"required,min=2,max=60"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type ActivateDTO struct {
	ActivationToken string `json:"activation_token" validate:"required"`
	ActivationCode  string `json:"activation_code"  validate:"required,len=4,numeric"`
}

type LoginDTO struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SocialAuthDTO carries claims already verified by the external identity
// provider; the backend trusts them as-is.
type SocialAuthDTO struct {
	Name   string `json:"name"   validate:"required"`
	Email  string `json:"email"  validate:"required,email"`
	Avatar string `json:"avatar" validate:"omitempty,url"`
}

type UpdateUserInfoDTO struct {
	Name  string `json:"name"  validate:"omitempty,min=2,max=60"`
	Email string `json:"email" validate:"omitempty,email"`
}

type UpdatePasswordDTO struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type UpdateAvatarDTO struct {
	// Avatar is the image payload (data URL or remote URL) forwarded to the
	// media provider.
	Avatar string `json:"avatar" validate:"required"`
}

type UpdateRoleDTO struct {
	ID   string `json:"id"   validate:"required,uuid"`
	Role string `json:"role" validate:"required,oneof=user admin"`
}
