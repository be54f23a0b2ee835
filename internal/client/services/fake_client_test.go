package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/nutrinow/internal/client/models"
)

// fakeClient implements client.Client with canned results and records the
// arguments it was called with.
type fakeClient struct {
	mu sync.Mutex

	RegisterResp *models.AuthResponse
	RegisterErr  error
	LoginResp    *models.AuthResponse
	LoginErr     error
	LogoutErr    error

	ChatResp    *models.ChatResponse
	ChatErr     error
	HistoryResp *models.HistoryResponse
	HistoryErr  error
	ImageResp   *models.ChatResponse
	ImageErr    error

	Items     map[string][]models.Item
	ListErr   map[string]error
	CreateRsp *models.ItemMutationResponse
	CreateErr error
	UpdateRsp *models.ItemMutationResponse
	UpdateErr error
	DeleteRsp *models.ItemMutationResponse
	DeleteErr error

	ProfileResp      *models.Profile
	ProfileErr       error
	UpdateProfileErr error
	DeleteAccountErr error
	ForgotErr        error
	ResetErr         error

	// block, when set, holds Login, Logout, SendMessage, CreateItem,
	// UpdateItem and DeleteItem until closed.
	block chan struct{}

	Calls          map[string]int
	LastCreds      models.Credentials
	LastChat       models.ChatRequest
	LastHistoryID  string
	LastImageID    string
	LastItemInput  models.ItemInput
	LastItemID     int64
	LastProfile    models.ProfileUpdate
	LastReset      models.PasswordReset
	LastForgotMail string
}

func (f *fakeClient) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Calls == nil {
		f.Calls = map[string]int{}
	}
	f.Calls[name]++
}

func (f *fakeClient) calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[name]
}

func (f *fakeClient) wait() {
	if f.block != nil {
		<-f.block
	}
}

func (f *fakeClient) Close() error                   { return nil }
func (f *fakeClient) Ping(ctx context.Context) error { return nil }

func (f *fakeClient) Register(ctx context.Context, reg models.Registration) (*models.AuthResponse, error) {
	f.record("Register")
	if f.RegisterErr != nil {
		return nil, f.RegisterErr
	}
	if f.RegisterResp == nil {
		return &models.AuthResponse{Success: true}, nil
	}
	return f.RegisterResp, nil
}

func (f *fakeClient) Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	f.record("Login")
	f.wait()
	f.LastCreds = creds
	if f.LoginErr != nil {
		return nil, f.LoginErr
	}
	return f.LoginResp, nil
}

func (f *fakeClient) Logout(ctx context.Context) error {
	f.record("Logout")
	f.wait()
	return f.LogoutErr
}

func (f *fakeClient) SendMessage(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	f.record("SendMessage")
	f.wait()
	f.LastChat = req
	if f.ChatErr != nil {
		return nil, f.ChatErr
	}
	return f.ChatResp, nil
}

func (f *fakeClient) ChatHistory(ctx context.Context, sessionID string) (*models.HistoryResponse, error) {
	f.record("ChatHistory")
	f.LastHistoryID = sessionID
	if f.HistoryErr != nil {
		return nil, f.HistoryErr
	}
	return f.HistoryResp, nil
}

func (f *fakeClient) AnalyzeImage(ctx context.Context, upload models.Upload, sessionID string) (*models.ChatResponse, error) {
	f.record("AnalyzeImage")
	f.LastImageID = sessionID
	if f.ImageErr != nil {
		return nil, f.ImageErr
	}
	return f.ImageResp, nil
}

func (f *fakeClient) ListItems(ctx context.Context, kind string) ([]models.Item, error) {
	f.record("ListItems:" + kind)
	if err := f.ListErr[kind]; err != nil {
		return nil, err
	}
	return append([]models.Item(nil), f.Items[kind]...), nil
}

func (f *fakeClient) CreateItem(ctx context.Context, in models.ItemInput) (*models.ItemMutationResponse, error) {
	f.record("CreateItem")
	f.wait()
	f.LastItemInput = in
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	return f.CreateRsp, nil
}

func (f *fakeClient) UpdateItem(ctx context.Context, id int64, in models.ItemInput) (*models.ItemMutationResponse, error) {
	f.record("UpdateItem")
	f.wait()
	f.LastItemID = id
	f.LastItemInput = in
	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}
	if f.UpdateRsp == nil {
		return &models.ItemMutationResponse{Success: true}, nil
	}
	return f.UpdateRsp, nil
}

func (f *fakeClient) DeleteItem(ctx context.Context, id int64) (*models.ItemMutationResponse, error) {
	f.record("DeleteItem")
	f.wait()
	f.LastItemID = id
	if f.DeleteErr != nil {
		return nil, f.DeleteErr
	}
	if f.DeleteRsp == nil {
		return &models.ItemMutationResponse{Success: true}, nil
	}
	return f.DeleteRsp, nil
}

func (f *fakeClient) GetProfile(ctx context.Context) (*models.Profile, error) {
	f.record("GetProfile")
	return f.ProfileResp, f.ProfileErr
}

func (f *fakeClient) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.MessageResponse, error) {
	f.record("UpdateProfile")
	f.LastProfile = upd
	if f.UpdateProfileErr != nil {
		return nil, f.UpdateProfileErr
	}
	return &models.MessageResponse{Success: true, Message: "Perfil atualizado"}, nil
}

func (f *fakeClient) DeleteAccount(ctx context.Context) (*models.MessageResponse, error) {
	f.record("DeleteAccount")
	if f.DeleteAccountErr != nil {
		return nil, f.DeleteAccountErr
	}
	return &models.MessageResponse{Success: true}, nil
}

func (f *fakeClient) ForgotPassword(ctx context.Context, req models.PasswordForgot) (*models.MessageResponse, error) {
	f.record("ForgotPassword")
	f.LastForgotMail = req.Email
	if f.ForgotErr != nil {
		return nil, f.ForgotErr
	}
	return &models.MessageResponse{Success: true}, nil
}

func (f *fakeClient) ResetPassword(ctx context.Context, req models.PasswordReset) (*models.MessageResponse, error) {
	f.record("ResetPassword")
	f.LastReset = req
	if f.ResetErr != nil {
		return nil, f.ResetErr
	}
	return &models.MessageResponse{Success: true, Message: "Senha redefinida"}, nil
}

type recordingUI struct {
	mu      sync.Mutex
	alerts  []string
	routes  []string
	answer  bool
	prompts []string
}

func (r *recordingUI) Alert(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, msg)
}

func (r *recordingUI) Navigate(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

func (r *recordingUI) Confirm(prompt string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts = append(r.prompts, prompt)
	return r.answer
}
