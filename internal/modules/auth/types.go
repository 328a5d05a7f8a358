package auth

import "errors"

type loginDTO struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
	OrgSlug  string `json:"org"      binding:"required"`
}

type registerDTO struct {
	Email    string `json:"email"    binding:"required,email"`
	Name     string `json:"name"`
	Password string `json:"password" binding:"required,min=8"`
}

var (
	errInvalidCredentials = errors.New("invalid email or password")
	errNotAMember         = errors.New("not a member of this organization")
	errEmailTaken         = errors.New("email is already registered")
)
