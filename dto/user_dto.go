package dto

// RegisterUserDTO is bound from the multipart form; files are read separately.
type RegisterUserDTO struct {
	FullName string `form:"fullName" json:"fullName"`
	Email    string `form:"email" json:"email"`
	UserName string `form:"userName" json:"userName"`
	Password string `form:"password" json:"password"`
}

// LoginDTO: either userName or email must be set
type LoginDTO struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refreshToken"`
}

type UpdateAccountDTO struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}
