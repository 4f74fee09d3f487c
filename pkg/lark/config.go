package lark

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Default wire contract. The copy endpoint is the path-parameterized drive v1
// form; older integrations posted file_token/folder_token in the body
// instead, which is why the paths and the folder field are configurable.
const (
	DefaultTokenPath   = "/open-apis/auth/v3/tenant_access_token/internal"
	DefaultCopyPath    = "/open-apis/drive/v1/files/{file_token}/copy"
	DefaultFolderField = "dst_folder_token"

	// FileTokenPlaceholder is substituted in CopyPath.
	FileTokenPlaceholder = "{file_token}"
)

// Config contains configuration for the platform Client.
type Config struct {
	// TokenPath is the tenant access token issuance path.
	// Default: DefaultTokenPath
	TokenPath string

	// CopyPath is the copy endpoint path; must contain FileTokenPlaceholder.
	// Default: DefaultCopyPath
	CopyPath string

	// FolderField is the request body key carrying the destination folder.
	// Default: DefaultFolderField
	FolderField string

	// TokenTimeout bounds a token issuance call.
	// Default: 10 seconds
	TokenTimeout time.Duration

	// CopyTimeout bounds a copy call, which is heavier server-side.
	// Default: 20 seconds
	CopyTimeout time.Duration

	// Transport is the HTTP transport (optional).
	Transport http.RoundTripper

	// Logger (optional).
	Logger hclog.Logger
}

// DefaultConfig returns a Config with the defaults applied.
func DefaultConfig() *Config {
	return &Config{
		TokenPath:    DefaultTokenPath,
		CopyPath:     DefaultCopyPath,
		FolderField:  DefaultFolderField,
		TokenTimeout: 10 * time.Second,
		CopyTimeout:  20 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.TokenPath == "" {
		c.TokenPath = defaults.TokenPath
	}
	if c.CopyPath == "" {
		c.CopyPath = defaults.CopyPath
	}
	if c.FolderField == "" {
		c.FolderField = defaults.FolderField
	}
	if c.TokenTimeout == 0 {
		c.TokenTimeout = defaults.TokenTimeout
	}
	if c.CopyTimeout == 0 {
		c.CopyTimeout = defaults.CopyTimeout
	}
	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.TokenPath, "/") {
		return fmt.Errorf("token_path must start with /, got: %q", c.TokenPath)
	}
	if !strings.HasPrefix(c.CopyPath, "/") {
		return fmt.Errorf("copy_path must start with /, got: %q", c.CopyPath)
	}
	if !strings.Contains(c.CopyPath, FileTokenPlaceholder) {
		return fmt.Errorf("copy_path must contain %s, got: %q", FileTokenPlaceholder, c.CopyPath)
	}
	if c.TokenTimeout <= 0 {
		return fmt.Errorf("token_timeout must be positive, got: %v", c.TokenTimeout)
	}
	if c.CopyTimeout <= 0 {
		return fmt.Errorf("copy_timeout must be positive, got: %v", c.CopyTimeout)
	}
	return nil
}

// newHTTPClient creates the HTTP client shared by both endpoints. Per-call
// deadlines come from the request context.
func (c *Config) newHTTPClient() *http.Client {
	transport := c.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}
	}
	return &http.Client{Transport: transport}
}
