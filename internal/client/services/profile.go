package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/nutrinow/internal/client/client"
	"github.com/dmitrijs2005/nutrinow/internal/client/models"
	"github.com/dmitrijs2005/nutrinow/internal/logging"
)

const birthDateLayout = "02/01/2006"

// ProfileService reads and edits the profile and deletes the account.
type ProfileService struct {
	client  client.Client
	session *SessionManager
	chat    *ChatCoordinator
	confirm Confirmer
	log     logging.Logger
}

func NewProfileService(c client.Client, session *SessionManager, chat *ChatCoordinator, confirm Confirmer, log logging.Logger) *ProfileService {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ProfileService{
		client:  c,
		session: session,
		chat:    chat,
		confirm: confirm,
		log:     log.With("component", "profile"),
	}
}

func (p *ProfileService) Get(ctx context.Context) (*models.Profile, error) {
	prof, err := p.client.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return prof, nil
}

// Update validates form and saves it. Height and weight are stored together
// and only when both are given.
func (p *ProfileService) Update(ctx context.Context, form models.ProfileForm) (string, error) {
	upd := models.ProfileUpdate{
		Name:         strings.TrimSpace(form.Name),
		Email:        strings.TrimSpace(form.Email),
		BirthDate:    strings.TrimSpace(form.BirthDate),
		Goal:         strings.TrimSpace(form.Goal),
		HeightWeight: models.FormatHeightWeight(form.Height, form.Weight),
	}
	if upd.BirthDate != "" {
		if _, err := time.Parse(birthDateLayout, upd.BirthDate); err != nil {
			return "", invalid("dataNascimento", "Birth date must be dd/mm/yyyy.")
		}
	}

	resp, err := p.client.UpdateProfile(ctx, upd)
	if err != nil {
		return "", fmt.Errorf("update profile: %w", err)
	}
	if err := logicalFailure(resp.Success, resp.Error); err != nil {
		return "", fmt.Errorf("update profile: %w", err)
	}
	return messageOr(resp.Message, "Profile updated."), nil
}

// DeleteAccount removes the account after confirmation. The backend drops the
// session with it, so the local session and chat id are cleared too.
func (p *ProfileService) DeleteAccount(ctx context.Context) error {
	if p.confirm == nil || !p.confirm.Confirm("Delete your account? This cannot be undone.") {
		return ErrCancelled
	}

	resp, err := p.client.DeleteAccount(ctx)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if err := logicalFailure(resp.Success, resp.Error); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	p.session.Clear(ctx)
	if err := p.chat.ClearSession(ctx); err != nil {
		p.log.Warn(ctx, "failed to clear chat session", "error", err)
	}
	return nil
}

func messageOr(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}
