package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/nutrinow/internal/client/models"
	"github.com/dmitrijs2005/nutrinow/internal/client/storage"
	"github.com/dmitrijs2005/nutrinow/internal/common"
	"github.com/dmitrijs2005/nutrinow/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// CookiesKey is the storage key owned by HTTPClient.
const CookiesKey = "session_cookies"

const maxResponseBytes = 10 << 20

const (
	pathRegister      = "/register"
	pathLogin         = "/login"
	pathLogout        = "/logout"
	pathChat          = "/chat"
	pathChatHistory   = "/chat_history"
	pathAnalyzeImage  = "/analyze_image"
	pathItems         = "/dieta-treino"
	pathProfile       = "/perfil"
	pathForgot        = "/esqueci-senha"
	pathResetPassword = "/redefinir-senha"
	pathHealth        = "/health"
)

// Options configures an HTTPClient. Only BaseURL is required.
type Options struct {
	BaseURL string
	Timeout time.Duration

	// RateLimit caps outgoing requests per second; zero disables limiting.
	RateLimit float64
	Burst     int

	// Store, when set, persists the session cookies between runs.
	Store storage.Store

	Logger logging.Logger

	// Transport overrides the default round tripper (tests).
	Transport http.RoundTripper
}

type HTTPClient struct {
	base    *url.URL
	http    *http.Client
	jar     http.CookieJar
	limiter *rate.Limiter
	store   storage.Store
	log     logging.Logger
}

type cookieRecord struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func NewHTTPClient(ctx context.Context, opts Options) (*HTTPClient, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", opts.BaseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}

	c := &HTTPClient{
		base:  base,
		jar:   jar,
		store: opts.Store,
		log:   log.With("component", "http"),
		http: &http.Client{
			Timeout:   opts.Timeout,
			Jar:       jar,
			Transport: opts.Transport,
		},
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	if err := c.restoreCookies(ctx); err != nil {
		c.log.Warn(ctx, "ignoring persisted cookies", "error", err)
	}
	return c, nil
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) restoreCookies(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	raw, ok, err := c.store.Get(ctx, CookiesKey)
	if err != nil || !ok {
		return err
	}
	var records []cookieRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		_ = c.store.Remove(ctx, CookiesKey)
		return fmt.Errorf("decode cookies: %w", err)
	}
	cookies := make([]*http.Cookie, 0, len(records))
	for _, r := range records {
		cookies = append(cookies, &http.Cookie{Name: r.Name, Value: r.Value, Path: "/"})
	}
	c.jar.SetCookies(c.base, cookies)
	return nil
}

func (c *HTTPClient) persistCookies(ctx context.Context) {
	if c.store == nil {
		return
	}
	cookies := c.jar.Cookies(c.base)
	if len(cookies) == 0 {
		if err := c.store.Remove(ctx, CookiesKey); err != nil {
			c.log.Warn(ctx, "failed to clear persisted cookies", "error", err)
		}
		return
	}
	records := make([]cookieRecord, 0, len(cookies))
	for _, ck := range cookies {
		records = append(records, cookieRecord{Name: ck.Name, Value: ck.Value})
	}
	b, err := json.Marshal(records)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, CookiesKey, string(b)); err != nil {
		c.log.Warn(ctx, "failed to persist cookies", "error", err)
	}
}

// request describes a single backend call.
type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	headers     map[string]string
}

func jsonRequest(method, path string, v any) (request, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return request{}, fmt.Errorf("encode %s body: %w", path, err)
	}
	return request{method: method, path: path, body: bytes.NewReader(b), contentType: "application/json"}, nil
}

func (c *HTTPClient) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do executes r and decodes a successful body into out (which may be nil).
func (c *HTTPClient) do(ctx context.Context, r request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.endpoint(r.path, r.query), r.body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", r.path, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, requestID)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s %s: %w", r.method, r.path, ctxErr)
		}
		return fmt.Errorf("%s %s: %w: %v", r.method, r.path, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	c.log.Debug(ctx, "backend call",
		"method", r.method, "path", r.path, "status", resp.StatusCode,
		"request_id", requestID, "elapsed", time.Since(started))

	if len(resp.Cookies()) > 0 {
		c.persistCookies(ctx)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", r.path, err)
	}

	if err := checkResponse(resp.StatusCode, body); err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", r.path, err)
	}
	return nil
}

// statusProbe reads the fields every backend body may carry.
type statusProbe struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func checkResponse(status int, body []byte) error {
	var probe statusProbe
	_ = json.Unmarshal(body, &probe)

	if status < 200 || status >= 300 {
		msg := probe.Error
		if msg == "" {
			msg = probe.Message
		}
		return &APIError{Status: status, Message: msg}
	}
	if probe.Success != nil && !*probe.Success {
		msg := probe.Error
		if msg == "" {
			msg = probe.Message
		}
		return &APIError{Status: status, Message: msg}
	}
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodGet, path: pathHealth}, nil)
}

func (c *HTTPClient) Register(ctx context.Context, reg models.Registration) (*models.AuthResponse, error) {
	r, err := jsonRequest(http.MethodPost, pathRegister, reg)
	if err != nil {
		return nil, err
	}
	var resp models.AuthResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	r, err := jsonRequest(http.MethodPost, pathLogin, creds)
	if err != nil {
		return nil, err
	}
	var resp models.AuthResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	r, err := jsonRequest(http.MethodPost, pathLogout, struct{}{})
	if err != nil {
		return err
	}
	return c.do(ctx, r, nil)
}

func (c *HTTPClient) SendMessage(ctx context.Context, msg models.ChatRequest) (*models.ChatResponse, error) {
	r, err := jsonRequest(http.MethodPost, pathChat, msg)
	if err != nil {
		return nil, err
	}
	if msg.SessionID != "" {
		r.headers = map[string]string{common.SessionIDHeaderName: msg.SessionID}
	}
	var resp models.ChatResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) ChatHistory(ctx context.Context, sessionID string) (*models.HistoryResponse, error) {
	r := request{method: http.MethodGet, path: pathChatHistory}
	if sessionID != "" {
		r.query = url.Values{"session_id": {sessionID}}
	}
	var resp models.HistoryResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) AnalyzeImage(ctx context.Context, upload models.Upload, sessionID string) (*models.ChatResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, upload.Filename))
	h.Set("Content-Type", http.DetectContentType(upload.Data))
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(upload.Data); err != nil {
		return nil, fmt.Errorf("write file part: %w", err)
	}
	if sessionID != "" {
		if err := mw.WriteField("session_id", sessionID); err != nil {
			return nil, fmt.Errorf("write session field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	r := request{
		method:      http.MethodPost,
		path:        pathAnalyzeImage,
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}
	if sessionID != "" {
		r.headers = map[string]string{common.SessionIDHeaderName: sessionID}
	}
	var resp models.ChatResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) ListItems(ctx context.Context, kind string) ([]models.Item, error) {
	r := request{method: http.MethodGet, path: pathItems, query: url.Values{"tipo": {kind}}}
	var resp models.ItemsResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	if resp.Items == nil {
		return []models.Item{}, nil
	}
	return resp.Items, nil
}

func (c *HTTPClient) CreateItem(ctx context.Context, in models.ItemInput) (*models.ItemMutationResponse, error) {
	r, err := jsonRequest(http.MethodPost, pathItems, in)
	if err != nil {
		return nil, err
	}
	var resp models.ItemMutationResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func itemPath(id int64) string {
	return pathItems + "/" + strconv.FormatInt(id, 10)
}

func (c *HTTPClient) UpdateItem(ctx context.Context, id int64, in models.ItemInput) (*models.ItemMutationResponse, error) {
	r, err := jsonRequest(http.MethodPut, itemPath(id), in)
	if err != nil {
		return nil, err
	}
	var resp models.ItemMutationResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) DeleteItem(ctx context.Context, id int64) (*models.ItemMutationResponse, error) {
	var resp models.ItemMutationResponse
	if err := c.do(ctx, request{method: http.MethodDelete, path: itemPath(id)}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) GetProfile(ctx context.Context) (*models.Profile, error) {
	var resp models.Profile
	if err := c.do(ctx, request{method: http.MethodGet, path: pathProfile}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.MessageResponse, error) {
	r, err := jsonRequest(http.MethodPost, pathProfile, upd)
	if err != nil {
		return nil, err
	}
	return c.doMessage(ctx, r)
}

func (c *HTTPClient) DeleteAccount(ctx context.Context) (*models.MessageResponse, error) {
	resp, err := c.doMessage(ctx, request{method: http.MethodDelete, path: pathProfile})
	if err == nil {
		// The backend destroyed the session; drop the stale cookie with it.
		c.jar.SetCookies(c.base, []*http.Cookie{{Name: common.SessionCookieName, Path: "/", MaxAge: -1}})
		c.persistCookies(ctx)
	}
	return resp, err
}

func (c *HTTPClient) ForgotPassword(ctx context.Context, req models.PasswordForgot) (*models.MessageResponse, error) {
	r, err := jsonRequest(http.MethodPost, pathForgot, req)
	if err != nil {
		return nil, err
	}
	return c.doMessage(ctx, r)
}

func (c *HTTPClient) ResetPassword(ctx context.Context, req models.PasswordReset) (*models.MessageResponse, error) {
	r, err := jsonRequest(http.MethodPost, pathResetPassword, req)
	if err != nil {
		return nil, err
	}
	return c.doMessage(ctx, r)
}

func (c *HTTPClient) doMessage(ctx context.Context, r request) (*models.MessageResponse, error) {
	var resp models.MessageResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// IsUnavailable reports whether err means the backend could not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
