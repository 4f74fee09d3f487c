package lark

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestClient(t *testing.T, cfg *Config) *Client {
	t.Helper()
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.Logger = hclog.NewNullLogger()
	client, err := NewClient(cfg)
	require.NoError(t, err)
	return client
}

var testCreds = Credentials{AppID: "cli_test", AppSecret: "secret"}

func TestClient_IssueTenantToken(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, DefaultTokenPath, r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		assert.Empty(t, r.Header.Get("Authorization"))

		var req tokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "cli_test", req.AppID)
		assert.Equal(t, "secret", req.AppSecret)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":0,"msg":"ok","tenant_access_token":"t-abc","expire":3600}`))
	}))
	defer mockServer.Close()

	client := newTestClient(t, nil)

	token, ttl, err := client.IssueTenantToken(context.Background(), mockServer.URL, testCreds)
	require.NoError(t, err)
	assert.Equal(t, "t-abc", token)
	assert.Equal(t, time.Hour, ttl)
}

func TestClient_IssueTenantToken_DefaultTTL(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":0,"tenant_access_token":"t-abc"}`))
	}))
	defer mockServer.Close()

	client := newTestClient(t, nil)

	_, ttl, err := client.IssueTenantToken(context.Background(), mockServer.URL, testCreds)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, ttl)
}

func TestClient_IssueTenantToken_ClampsTTL(t *testing.T) {
	tests := []struct {
		name   string
		expire string
		want   time.Duration
	}{
		{"negative", "-5", DefaultTokenTTL},
		{"at bound", "86400", MaxTokenTTL},
		{"beyond bound", "86401", MaxTokenTTL},
		{"overflowing", "20000000000", MaxTokenTTL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"code":0,"tenant_access_token":"t-abc","expire":` + tt.expire + `}`))
			}))
			defer mockServer.Close()

			client := newTestClient(t, nil)

			_, ttl, err := client.IssueTenantToken(context.Background(), mockServer.URL, testCreds)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ttl)
		})
	}
}

func TestClient_IssueTenantToken_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		errorMsg string
	}{
		{
			name:     "non-zero code with HTTP 200",
			status:   http.StatusOK,
			body:     `{"code":10003,"msg":"invalid param"}`,
			errorMsg: "code=10003",
		},
		{
			name:     "missing code",
			status:   http.StatusOK,
			body:     `{"tenant_access_token":"t-abc"}`,
			errorMsg: "code=missing",
		},
		{
			name:     "empty token",
			status:   http.StatusOK,
			body:     `{"code":0}`,
			errorMsg: "no tenant_access_token",
		},
		{
			name:     "html error page",
			status:   http.StatusBadGateway,
			body:     `<html>bad gateway</html>`,
			errorMsg: "malformed token response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer mockServer.Close()

			client := newTestClient(t, nil)

			_, _, err := client.IssueTenantToken(context.Background(), mockServer.URL, testCreds)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUpstreamAuth))
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestClient_IssueTenantToken_MissingCredentials(t *testing.T) {
	calls := 0
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer mockServer.Close()

	client := newTestClient(t, nil)

	_, _, err := client.IssueTenantToken(context.Background(), mockServer.URL, Credentials{AppID: "cli_test"})
	require.Error(t, err)
	assert.Equal(t, KindConfiguration, KindOf(err))
	assert.Equal(t, 0, calls)
}

func TestClient_IssueTenantToken_Unreachable(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := mockServer.URL
	mockServer.Close()

	client := newTestClient(t, nil)

	_, _, err := client.IssueTenantToken(context.Background(), baseURL, testCreds)
	require.Error(t, err)
	assert.Equal(t, KindUpstreamAuth, KindOf(err))
}

func TestClient_IssueTenantToken_Timeout(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer mockServer.Close()

	client := newTestClient(t, &Config{TokenTimeout: 50 * time.Millisecond})

	start := time.Now()
	_, _, err := client.IssueTenantToken(context.Background(), mockServer.URL, testCreds)
	require.Error(t, err)
	assert.Equal(t, KindUpstreamAuth, KindOf(err))
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), time.Second)
}

func TestClient_CopyFile(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/open-apis/drive/v1/files/tmpl123/copy", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"dst_folder_token": "fld456"}, body)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":0,"data":{"file":{"token":"newDoc1","url":"https://x/newDoc1"}}}`))
	}))
	defer mockServer.Close()

	client := newTestClient(t, nil)

	res, err := client.CopyFile(context.Background(), mockServer.URL, &oauth2.Token{AccessToken: "tok"}, "tmpl123", "fld456")
	require.NoError(t, err)
	assert.Equal(t, "newDoc1", res.Token)
	assert.Equal(t, "https://x/newDoc1", res.URL)
	assert.NotEmpty(t, res.Raw)
}

func TestClient_CopyFile_OmitsEmptyFolder(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Empty(t, body)

		w.Write([]byte(`{"token":"newDoc1"}`))
	}))
	defer mockServer.Close()

	client := newTestClient(t, nil)

	res, err := client.CopyFile(context.Background(), mockServer.URL, &oauth2.Token{AccessToken: "tok"}, "tmpl123", "")
	require.NoError(t, err)
	assert.Equal(t, "newDoc1", res.Token)
	assert.Empty(t, res.URL)
}

func TestClient_CopyFile_CustomWireContract(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/open-apis/drive/explorer/v2/file/copy/files/tmpl123", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "fld456", body["folder_token"])

		w.Write([]byte(`{"data":{"token":"newDoc1"}}`))
	}))
	defer mockServer.Close()

	client := newTestClient(t, &Config{
		CopyPath:    "/open-apis/drive/explorer/v2/file/copy/files/{file_token}",
		FolderField: "folder_token",
	})

	res, err := client.CopyFile(context.Background(), mockServer.URL, &oauth2.Token{AccessToken: "tok"}, "tmpl123", "fld456")
	require.NoError(t, err)
	assert.Equal(t, "newDoc1", res.Token)
}

func TestClient_CopyFile_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		errorMsg   string
	}{
		{
			name:       "forbidden",
			status:     http.StatusForbidden,
			body:       `{"code":1061004,"msg":"forbidden"}`,
			wantStatus: http.StatusForbidden,
			errorMsg:   "HTTP 403",
		},
		{
			name:       "server error",
			status:     http.StatusInternalServerError,
			body:       `internal`,
			wantStatus: http.StatusInternalServerError,
			errorMsg:   "HTTP 500",
		},
		{
			name:     "unparsable body",
			status:   http.StatusOK,
			body:     `not json`,
			errorMsg: "unusable copy response",
		},
		{
			name:     "no token in body",
			status:   http.StatusOK,
			body:     `{"code":0,"data":{}}`,
			errorMsg: "no document token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer mockServer.Close()

			client := newTestClient(t, nil)

			res, err := client.CopyFile(context.Background(), mockServer.URL, &oauth2.Token{AccessToken: "tok"}, "tmpl123", "")
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, ErrUpstreamCopy))
			assert.Contains(t, err.Error(), tt.errorMsg)

			var lerr *Error
			require.True(t, errors.As(err, &lerr))
			assert.Equal(t, tt.wantStatus, lerr.StatusCode)
			assert.Equal(t, tt.body, lerr.Body)
		})
	}
}

func TestClient_CopyFile_HonorsCancellation(t *testing.T) {
	release := make(chan struct{})

	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer mockServer.Close()
	// Registered after Close so it runs first and unblocks the handler.
	defer close(release)

	client := newTestClient(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := client.CopyFile(ctx, mockServer.URL, &oauth2.Token{AccessToken: "tok"}, "tmpl123", "")
	require.Error(t, err)
	assert.Equal(t, KindUpstreamCopy, KindOf(err))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewClient_InvalidConfig(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		errorMsg string
	}{
		{"copy path without placeholder", &Config{CopyPath: "/open-apis/drive/v1/files/copy"}, "copy_path"},
		{"relative token path", &Config{TokenPath: "auth/token"}, "token_path"},
		{"negative copy timeout", &Config{CopyTimeout: -time.Second}, "copy_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}
