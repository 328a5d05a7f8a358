package org

import "errors"

type createOrgDTO struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug" binding:"required,lowercase"`
	Description string `json:"description"`
}

type updateOrgDTO struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type inviteDTO struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role"`
}

type acceptInviteDTO struct {
	Token string `json:"token" binding:"required"`
}

var (
	errSlugTaken      = errors.New("organization slug is already taken")
	errInviteExpired  = errors.New("invitation has expired")
	errInviteAccepted = errors.New("invitation was already accepted")
	errAlreadyMember  = errors.New("user is already a member")
	errLastOwner      = errors.New("cannot remove the last owner")
)
