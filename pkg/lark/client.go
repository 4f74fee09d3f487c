package lark

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
)

// DefaultTokenTTL is assumed when the platform omits the token lifetime.
const DefaultTokenTTL = 7200 * time.Second

// MaxTokenTTL bounds the lifetime accepted from the platform.
const MaxTokenTTL = 24 * time.Hour

// maxResponseBytes caps how much of an upstream body is read.
const maxResponseBytes = 1 << 20

// Credentials identify the internal app to the platform.
type Credentials struct {
	AppID     string
	AppSecret string
}

// Complete reports whether both the app id and the secret are set.
func (c Credentials) Complete() bool {
	return c.AppID != "" && c.AppSecret != ""
}

// Client performs the two platform calls the relay needs: tenant access token
// issuance and drive file copy. It holds no per-tenant state; the base
// address is chosen by the caller on every call.
type Client struct {
	config *Config
	client *http.Client
	logger hclog.Logger
}

// NewClient creates a new platform client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid lark client config: %w", err)
	}

	return &Client{
		config: cfg,
		client: cfg.newHTTPClient(),
		logger: cfg.Logger.Named("lark-client"),
	}, nil
}

type tokenRequest struct {
	AppID     string `json:"app_id"`
	AppSecret string `json:"app_secret"`
}

type tokenResponse struct {
	Code              *int   `json:"code"`
	Msg               string `json:"msg"`
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int64  `json:"expire"`
}

// IssueTenantToken requests a tenant access token from baseURL. The platform
// reports failures through a non-zero "code" in the body, often with HTTP 200,
// so the body is authoritative. A missing or non-positive lifetime falls back
// to DefaultTokenTTL.
func (c *Client) IssueTenantToken(ctx context.Context, baseURL string, creds Credentials) (string, time.Duration, error) {
	const op = "IssueTenantToken"

	if !creds.Complete() {
		return "", 0, newError(KindConfiguration, op, "app_id and app_secret must be configured", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.TokenTimeout)
	defer cancel()

	endpoint := strings.TrimRight(baseURL, "/") + c.config.TokenPath
	status, body, err := c.post(ctx, endpoint, nil, tokenRequest{AppID: creds.AppID, AppSecret: creds.AppSecret})
	if err != nil {
		return "", 0, newError(KindUpstreamAuth, op, "token request failed", err)
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", 0, &Error{
			Kind: KindUpstreamAuth, Op: op, Msg: "malformed token response",
			StatusCode: status, Body: string(body), Err: err,
		}
	}

	if resp.Code == nil || *resp.Code != 0 {
		code := "missing"
		if resp.Code != nil {
			code = fmt.Sprint(*resp.Code)
		}
		return "", 0, &Error{
			Kind: KindUpstreamAuth, Op: op,
			Msg:        fmt.Sprintf("token request rejected (code=%s, msg=%q)", code, resp.Msg),
			StatusCode: status, Body: string(body),
		}
	}

	if resp.TenantAccessToken == "" {
		return "", 0, &Error{
			Kind: KindUpstreamAuth, Op: op, Msg: "token response has no tenant_access_token",
			StatusCode: status, Body: string(body),
		}
	}

	var ttl time.Duration
	switch {
	case resp.Expire <= 0:
		ttl = DefaultTokenTTL
	case resp.Expire > int64(MaxTokenTTL/time.Second):
		ttl = MaxTokenTTL
	default:
		ttl = time.Duration(resp.Expire) * time.Second
	}

	c.logger.Debug("issued tenant access token", "base_url", baseURL, "ttl", ttl)

	return resp.TenantAccessToken, ttl, nil
}

// CopyResult is the normalized outcome of a copy call.
type CopyResult struct {
	// Token is the new document's resource token. Never empty on success.
	Token string

	// URL is the new document's URL, when the platform returned one.
	URL string

	// Raw is the upstream response body.
	Raw json.RawMessage
}

// CopyFile asks the platform to copy fileToken into folderToken. An empty
// folderToken leaves the destination field out of the request, which copies
// next to the source.
func (c *Client) CopyFile(ctx context.Context, baseURL string, tok *oauth2.Token, fileToken, folderToken string) (*CopyResult, error) {
	const op = "CopyFile"

	if tok == nil || tok.AccessToken == "" {
		return nil, newError(KindUpstreamAuth, op, "no access token", nil)
	}
	if fileToken == "" {
		return nil, ValidationError(op, "file token is required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.CopyTimeout)
	defer cancel()

	path := strings.ReplaceAll(c.config.CopyPath, FileTokenPlaceholder, url.PathEscape(fileToken))
	endpoint := strings.TrimRight(baseURL, "/") + path

	payload := map[string]string{}
	if folderToken != "" {
		payload[c.config.FolderField] = folderToken
	}

	c.logger.Debug("copying file",
		"base_url", baseURL,
		"file_token", fileToken,
		"folder_token", folderToken,
	)

	status, body, err := c.post(ctx, endpoint, tok, payload)
	if err != nil {
		return nil, newError(KindUpstreamCopy, op, "copy request failed", err)
	}

	if status != http.StatusOK {
		return nil, &Error{
			Kind: KindUpstreamCopy, Op: op, Msg: "copy rejected",
			StatusCode: status, Body: string(body),
		}
	}

	result, err := NormalizeCopyResponse(body)
	if err != nil {
		return nil, &Error{
			Kind: KindUpstreamCopy, Op: op, Msg: "unusable copy response",
			Body: string(body), Err: err,
		}
	}

	return result, nil
}

// post sends a JSON POST and returns the status and body. tok is optional.
func (c *Client) post(ctx context.Context, endpoint string, tok *oauth2.Token, payload any) (int, []byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/json")
	if tok != nil {
		tok.SetAuthHeader(req)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, nil, fmt.Errorf("request timed out: %w", err)
		}
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}
