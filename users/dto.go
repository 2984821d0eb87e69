package users

// CreateUserRequest is the body of POST /api/user/create.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255" example:"test@example.com"`
	Password string `json:"password" validate:"required,min=5,max=128" example:"testpass123"`
	Name     string `json:"name" validate:"required,max=255" example:"Test Name"`
}

// UpdateUserRequest is the body of PATCH /api/user/me. Nil fields are left unchanged.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=255" example:"New Name"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=5,max=128" example:"newpass123"`
}

// ReplaceUserRequest is the body of PUT /api/user/me. Every field is required.
type ReplaceUserRequest struct {
	Name     string `json:"name" validate:"required,max=255" example:"New Name"`
	Password string `json:"password" validate:"required,min=5,max=128" example:"newpass123"`
}

// UserResponse is the public view of a user. The password is never included.
type UserResponse struct {
	Email string `json:"email" example:"test@example.com"`
	Name  string `json:"name" example:"Test Name"`
}

func toResponse(u *User) UserResponse {
	return UserResponse{Email: u.Email, Name: u.Name}
}
