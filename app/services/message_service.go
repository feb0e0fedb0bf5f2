package services

import (
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/validate"
)

type MessageInput struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required"`
}

// MessageService validates contact-form submissions. Nothing is stored or
// delivered.
type MessageService struct{}

func NewMessageService() *MessageService { return &MessageService{} }

func (s *MessageService) Validate(in MessageInput) error {
	errs := validate.Struct(in)
	switch {
	case errs.Failed("required"):
		return apperr.Validation("All fields (name, email, message) are required")
	case errs.Failed("email"):
		return apperr.Validation("Invalid email format")
	}
	return nil
}
