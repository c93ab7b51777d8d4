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
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/sealdrop/internal/client/models"
	"github.com/dmitrijs2005/sealdrop/internal/common"
	"github.com/dmitrijs2005/sealdrop/internal/cryptox"
	"github.com/dmitrijs2005/sealdrop/internal/logging"
)

const maxErrorBody = 64 << 10

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	log        logging.Logger

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	onRefresh    func(s *models.Session)

	// refreshMu serializes token refreshes.
	refreshMu sync.Mutex
}

// NewHTTPClient returns a client for the API rooted at baseURL. Every request
// is bounded by timeout.
func NewHTTPClient(baseURL string, timeout time.Duration, l logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        l.With("module", "client"),
	}
}

type request struct {
	method      string
	path        string
	body        []byte
	contentType string
	auth        bool
}

func jsonRequest(method, path string, v any, auth bool) (request, error) {
	r := request{method: method, path: path, auth: auth}
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return r, err
		}
		r.body = b
		r.contentType = "application/json"
	}
	return r, nil
}

func (c *HTTPClient) tokens() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

func (c *HTTPClient) SetSession(s *models.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s == nil {
		c.accessToken, c.refreshToken = "", ""
		return
	}
	c.accessToken, c.refreshToken = s.AccessToken, s.RefreshToken
}

func (c *HTTPClient) OnRefresh(fn func(s *models.Session)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRefresh = fn
}

func (c *HTTPClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// send performs one attempt and returns the access token it used.
func (c *HTTPClient) send(ctx context.Context, r request) (*http.Response, string, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return nil, "", err
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	var token string
	if r.auth {
		token, _ = c.tokens()
		if token == "" {
			return nil, "", ErrNotLoggedIn
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, token, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return resp, token, nil
}

// do sends r and decodes a 2xx JSON body into out. An authenticated request
// rejected with an expired access token is retried once after a refresh.
func (c *HTTPClient) do(ctx context.Context, r request, out any) error {
	resp, token, err := c.send(ctx, r)
	if err != nil {
		return err
	}

	if r.auth && resp.StatusCode == http.StatusUnauthorized {
		apiErr := readAPIError(resp)
		_ = resp.Body.Close()
		if !errors.Is(apiErr, common.ErrTokenExpired) {
			return apiErr
		}

		c.log.Debug(ctx, "access token expired, refreshing", "path", r.path)
		if err := c.refresh(ctx, token); err != nil {
			return err
		}

		resp, _, err = c.send(ctx, r)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	var m struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = json.Unmarshal(b, &m)
	return newAPIError(resp.StatusCode, m.Message, m.Code)
}

// refresh rotates the token pair unless another caller already replaced the
// stale access token.
func (c *HTTPClient) refresh(ctx context.Context, stale string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	access, refresh := c.tokens()
	if access != stale {
		return nil
	}
	if refresh == "" {
		return ErrNotLoggedIn
	}

	r, err := jsonRequest(http.MethodPost, "/api/auth/refresh", map[string]string{"refresh_token": refresh}, false)
	if err != nil {
		return err
	}

	var s models.Session
	if err := c.do(ctx, r, &s); err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}

	c.mu.Lock()
	c.accessToken, c.refreshToken = s.AccessToken, s.RefreshToken
	fn := c.onRefresh
	c.mu.Unlock()

	if fn != nil {
		fn(&s)
	}
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodGet, path: "/healthz"}, nil)
}

func (c *HTTPClient) Signup(ctx context.Context, email, password string) (*models.User, error) {
	r, err := jsonRequest(http.MethodPost, "/api/auth/signup", map[string]string{"email": email, "password": password}, false)
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := c.do(ctx, r, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) login(ctx context.Context, path, email, password string) (*models.Session, error) {
	r, err := jsonRequest(http.MethodPost, path, map[string]string{"email": email, "password": password}, false)
	if err != nil {
		return nil, err
	}
	var s models.Session
	if err := c.do(ctx, r, &s); err != nil {
		return nil, err
	}
	s.Email = email
	c.SetSession(&s)
	return &s, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.Session, error) {
	return c.login(ctx, "/api/auth/login", email, password)
}

func (c *HTTPClient) AdminLogin(ctx context.Context, email, password string) (*models.Session, error) {
	return c.login(ctx, "/api/auth/admin/login", email, password)
}

func (c *HTTPClient) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error {
	r, err := jsonRequest(http.MethodPost, "/api/auth/change-password", map[string]string{
		"email":       email,
		"oldPassword": oldPassword,
		"newPassword": newPassword,
	}, false)
	if err != nil {
		return err
	}
	return c.do(ctx, r, nil)
}

func (c *HTTPClient) CreateUser(ctx context.Context, u models.NewUser) (*models.User, error) {
	r, err := jsonRequest(http.MethodPost, "/api/auth/admin/create-user", u, true)
	if err != nil {
		return nil, err
	}
	var created models.User
	if err := c.do(ctx, r, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *HTTPClient) SetUserStatus(ctx context.Context, userID, status string) error {
	r, err := jsonRequest(http.MethodPut, "/api/auth/status/"+url.PathEscape(userID), map[string]string{"status": status}, true)
	if err != nil {
		return err
	}
	return c.do(ctx, r, nil)
}

func (c *HTTPClient) listUsers(ctx context.Context, path string) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, request{method: http.MethodGet, path: path, auth: true}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]models.User, error) {
	return c.listUsers(ctx, "/api/files/admin/users")
}

func (c *HTTPClient) ManagedUsers(ctx context.Context) ([]models.User, error) {
	return c.listUsers(ctx, "/api/files/manager/users")
}

// UploadFile posts the ciphertext as base64 text in the multipart field
// "file", named after the original file, together with the iv and key.
func (c *HTTPClient) UploadFile(ctx context.Context, filename string, ciphertext []byte, ivHex, keyHex string) (*models.File, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile(common.FormFieldFile, filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, cryptox.EncodeTransport(ciphertext)); err != nil {
		return nil, err
	}
	if err := w.WriteField(common.FormFieldIV, ivHex); err != nil {
		return nil, err
	}
	if err := w.WriteField(common.FormFieldEncryptionKey, keyHex); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	r := request{
		method:      http.MethodPost,
		path:        "/api/files/upload",
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
		auth:        true,
	}

	var f models.File
	if err := c.do(ctx, r, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *HTTPClient) listFiles(ctx context.Context, path string) ([]models.File, error) {
	var files []models.File
	if err := c.do(ctx, request{method: http.MethodGet, path: path, auth: true}, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (c *HTTPClient) ListFiles(ctx context.Context) ([]models.File, error) {
	return c.listFiles(ctx, "/api/files")
}

func (c *HTTPClient) PendingFiles(ctx context.Context) ([]models.File, error) {
	return c.listFiles(ctx, "/api/files/manager/files")
}

func (c *HTTPClient) GetFile(ctx context.Context, id string) (*models.File, error) {
	var f models.File
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/files/" + url.PathEscape(id), auth: true}, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *HTTPClient) DeleteFile(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/api/files/" + url.PathEscape(id), auth: true}, nil)
}

func (c *HTTPClient) ReviewFile(ctx context.Context, id, action string) (*models.Transition, error) {
	r, err := jsonRequest(http.MethodPut, "/api/files/status/"+url.PathEscape(id), map[string]string{"action": action}, true)
	if err != nil {
		return nil, err
	}
	var t models.Transition
	if err := c.do(ctx, r, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) GetAdminFile(ctx context.Context, id string) (*models.AdminFile, error) {
	var f models.AdminFile
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/files/admin/files/" + url.PathEscape(id), auth: true}, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *HTTPClient) ListUserFiles(ctx context.Context, userID string) ([]models.AdminFile, error) {
	var files []models.AdminFile
	path := "/api/files/admin/users/" + url.PathEscape(userID) + "/files"
	if err := c.do(ctx, request{method: http.MethodGet, path: path, auth: true}, &files); err != nil {
		return nil, err
	}
	return files, nil
}
