package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/nutrinow/internal/client/client"
	"github.com/dmitrijs2005/nutrinow/internal/client/models"
)

// PasswordService drives the forgot/reset password screens.
type PasswordService struct {
	client client.Client
}

func NewPasswordService(c client.Client) *PasswordService {
	return &PasswordService{client: c}
}

// Forgot asks the backend to send a reset link to email.
func (p *PasswordService) Forgot(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", invalid("email", "Email is required.")
	}

	resp, err := p.client.ForgotPassword(ctx, models.PasswordForgot{Email: email})
	if err != nil {
		return "", fmt.Errorf("forgot password: %w", err)
	}
	if err := logicalFailure(resp.Success, resp.Error); err != nil {
		return "", fmt.Errorf("forgot password: %w", err)
	}
	return messageOr(resp.Message, "If the email is registered, a reset link has been sent."), nil
}

// Reset sets a new password using the token from the reset link.
func (p *PasswordService) Reset(ctx context.Context, token, password, confirm string) (string, error) {
	token = strings.TrimSpace(token)
	switch {
	case token == "":
		return "", invalid("token", "Reset token is required.")
	case password == "" || confirm == "":
		return "", invalid("nova_senha", "Fill in both password fields.")
	case password != confirm:
		return "", invalid("nova_senha", "Passwords do not match.")
	}

	resp, err := p.client.ResetPassword(ctx, models.PasswordReset{Token: token, NewPassword: password})
	if err != nil {
		return "", fmt.Errorf("reset password: %w", err)
	}
	if err := logicalFailure(resp.Success, resp.Error); err != nil {
		return "", fmt.Errorf("reset password: %w", err)
	}
	return messageOr(resp.Message, "Password changed. You can log in now."), nil
}
