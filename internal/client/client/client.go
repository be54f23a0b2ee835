package client

import (
	"context"

	"github.com/dmitrijs2005/nutrinow/internal/client/models"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error

	Register(ctx context.Context, reg models.Registration) (*models.AuthResponse, error)
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error)
	Logout(ctx context.Context) error

	SendMessage(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
	ChatHistory(ctx context.Context, sessionID string) (*models.HistoryResponse, error)
	AnalyzeImage(ctx context.Context, upload models.Upload, sessionID string) (*models.ChatResponse, error)

	ListItems(ctx context.Context, kind string) ([]models.Item, error)
	CreateItem(ctx context.Context, in models.ItemInput) (*models.ItemMutationResponse, error)
	UpdateItem(ctx context.Context, id int64, in models.ItemInput) (*models.ItemMutationResponse, error)
	DeleteItem(ctx context.Context, id int64) (*models.ItemMutationResponse, error)

	GetProfile(ctx context.Context) (*models.Profile, error)
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.MessageResponse, error)
	DeleteAccount(ctx context.Context) (*models.MessageResponse, error)

	ForgotPassword(ctx context.Context, req models.PasswordForgot) (*models.MessageResponse, error)
	ResetPassword(ctx context.Context, req models.PasswordReset) (*models.MessageResponse, error)
}
