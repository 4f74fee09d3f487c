package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/hashicorp-forge/hermes-distributor/pkg/lark"
)

// Config contains the distributor configuration.
type Config struct {
	// LogLevel is the level of logs to output.
	LogLevel string `hcl:"log_level,optional" json:"log_level"`

	// Server configures the HTTP server.
	Server *Server `hcl:"server,block" json:"server"`

	// Lark configures the platform app and wire contract.
	Lark *Lark `hcl:"lark,block" json:"lark"`
}

// Server configures the HTTP server.
type Server struct {
	// Addr is the address to bind to for serving HTTP.
	Addr string `hcl:"addr,optional" json:"addr"`

	// ReadTimeout and WriteTimeout bound a single HTTP exchange. WriteTimeout
	// must leave room for a token fetch plus a copy.
	ReadTimeout  string `hcl:"read_timeout,optional" json:"read_timeout"`
	WriteTimeout string `hcl:"write_timeout,optional" json:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout string `hcl:"shutdown_timeout,optional" json:"shutdown_timeout"`
}

// Lark configures the Feishu/Lark internal app.
type Lark struct {
	AppID              string `hcl:"app_id,optional" json:"app_id"`
	AppSecret          string `hcl:"app_secret,optional" json:"-"`
	DefaultFolderToken string `hcl:"default_folder_token,optional" json:"default_folder_token"`

	// TenantDomain is used to build document URLs the platform did not
	// return (e.g. "example.feishu.cn").
	TenantDomain string `hcl:"tenant_domain,optional" json:"tenant_domain"`

	TokenTimeout string `hcl:"token_timeout,optional" json:"token_timeout"`
	CopyTimeout  string `hcl:"copy_timeout,optional" json:"copy_timeout"`

	// IncludeRawResponse attaches the upstream copy response to results.
	IncludeRawResponse bool `hcl:"include_raw_response,optional" json:"include_raw_response"`

	// Wire contract overrides.
	TokenPath   string `hcl:"token_path,optional" json:"token_path"`
	CopyPath    string `hcl:"copy_path,optional" json:"copy_path"`
	FolderField string `hcl:"folder_field,optional" json:"folder_field"`

	// DefaultBaseURL serves documents matching no domain block.
	DefaultBaseURL string `hcl:"default_base_url,optional" json:"default_base_url"`

	// Domains are matched against the template URL in order.
	Domains []*Domain `hcl:"domain,block" json:"domain"`
}

// Domain maps a document host suffix to an API base address.
type Domain struct {
	Name       string `hcl:"name,label" json:"name"`
	HostSuffix string `hcl:"host_suffix" json:"host_suffix"`
	BaseURL    string `hcl:"base_url" json:"base_url"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// applyDefaults fills every unset setting.
func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.Server == nil {
		c.Server = &Server{}
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "15s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "60s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "30s"
	}

	if c.Lark == nil {
		c.Lark = &Lark{}
	}
	l := c.Lark
	if l.TokenTimeout == "" {
		l.TokenTimeout = "10s"
	}
	if l.CopyTimeout == "" {
		l.CopyTimeout = "20s"
	}
	if l.TokenPath == "" {
		l.TokenPath = lark.DefaultTokenPath
	}
	if l.CopyPath == "" {
		l.CopyPath = lark.DefaultCopyPath
	}
	if l.FolderField == "" {
		l.FolderField = lark.DefaultFolderField
	}

	defaults := lark.DefaultDomainSelector()
	if l.DefaultBaseURL == "" {
		l.DefaultBaseURL = defaults.DefaultBaseURL
	}
	if len(l.Domains) == 0 {
		for _, f := range defaults.Families {
			l.Domains = append(l.Domains, &Domain{
				Name:       f.Name,
				HostSuffix: f.HostSuffix,
				BaseURL:    f.BaseURL,
			})
		}
	}
}

// Load reads the configuration. An empty path yields the defaults. In both
// cases non-empty environment variables override the result before it is
// validated.
func Load(fs afero.Fs, path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if path == "" {
		cfg = DefaultConfig()
	} else {
		cfg, err = DecodeFile(fs, path)
		if err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DecodeFile decodes an HCL (or HCL JSON) configuration file and applies
// defaults for unset settings. The env("NAME") function is available in
// expressions.
func DecodeFile(fs afero.Fs, path string) (*Config, error) {
	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := &Config{}
	if err := hclsimple.Decode(filepath.Base(path), src, evalContext(), cfg); err != nil {
		return nil, fmt.Errorf("error decoding config file: %w", err)
	}
	cfg.applyDefaults()

	return cfg, nil
}

func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"env": envFunc,
		},
	}
}

// envFunc returns the value of an environment variable, or "" when unset.
var envFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		return cty.StringVal(os.Getenv(args[0].AsString())), nil
	},
})

// ApplyEnv overrides settings with the non-empty environment variables
// APP_ID, APP_SECRET, DEFAULT_FOLDER_TOKEN, TENANT_DOMAIN and PORT.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	set(&c.Lark.AppID, "APP_ID")
	set(&c.Lark.AppSecret, "APP_SECRET")
	set(&c.Lark.DefaultFolderToken, "DEFAULT_FOLDER_TOKEN")
	set(&c.Lark.TenantDomain, "TENANT_DOMAIN")

	if port := getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
}

// Validate validates the configuration. Missing app credentials are not an
// error here: the server starts, reports them in its health check, and fails
// each distribution with a configuration error.
func (c *Config) Validate() error {
	var result *multierror.Error

	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogLevel,
			validation.Required,
			validation.In("trace", "debug", "info", "warn", "error"),
		),
	); err != nil {
		result = multierror.Append(result, err)
	}

	if err := validation.ValidateStruct(c.Server,
		validation.Field(&c.Server.Addr, validation.Required),
		validation.Field(&c.Server.ReadTimeout, validation.By(positiveDuration)),
		validation.Field(&c.Server.WriteTimeout, validation.By(positiveDuration)),
		validation.Field(&c.Server.ShutdownTimeout, validation.By(positiveDuration)),
	); err != nil {
		result = multierror.Append(result, fmt.Errorf("server: %w", err))
	}

	l := c.Lark
	if err := validation.ValidateStruct(l,
		validation.Field(&l.TokenTimeout, validation.By(positiveDuration)),
		validation.Field(&l.CopyTimeout, validation.By(positiveDuration)),
	); err != nil {
		result = multierror.Append(result, fmt.Errorf("lark: %w", err))
	}

	for _, d := range l.Domains {
		if err := validation.ValidateStruct(d,
			validation.Field(&d.Name, validation.Required),
			validation.Field(&d.HostSuffix, validation.Required),
			validation.Field(&d.BaseURL, validation.Required),
		); err != nil {
			result = multierror.Append(result, fmt.Errorf("lark: domain %q: %w", d.Name, err))
		}
	}

	if err := c.DomainSelector().Validate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("lark: %w", err))
	}

	if err := c.LarkClientConfig().Validate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("lark: %w", err))
	}

	return result.ErrorOrNil()
}

// positiveDuration is an ozzo rule for duration strings such as "10s".
func positiveDuration(value interface{}) error {
	s, _ := value.(string)
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("must be a duration such as \"10s\"")
	}
	if d <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

// duration parses a validated duration string. Unparsable values yield 0,
// which callers replace with their own default.
func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// Credentials returns the app credentials.
func (c *Config) Credentials() lark.Credentials {
	return lark.Credentials{
		AppID:     c.Lark.AppID,
		AppSecret: c.Lark.AppSecret,
	}
}

// DomainSelector returns the configured domain families.
func (c *Config) DomainSelector() lark.DomainSelector {
	s := lark.DomainSelector{DefaultBaseURL: c.Lark.DefaultBaseURL}
	for _, d := range c.Lark.Domains {
		s.Families = append(s.Families, lark.DomainFamily{
			Name:       d.Name,
			HostSuffix: d.HostSuffix,
			BaseURL:    d.BaseURL,
		})
	}
	return s
}

// LarkClientConfig returns the platform client configuration.
func (c *Config) LarkClientConfig() *lark.Config {
	return &lark.Config{
		TokenPath:    c.Lark.TokenPath,
		CopyPath:     c.Lark.CopyPath,
		FolderField:  c.Lark.FolderField,
		TokenTimeout: duration(c.Lark.TokenTimeout),
		CopyTimeout:  duration(c.Lark.CopyTimeout),
	}
}

// ReadTimeoutDuration returns the server read timeout.
func (s *Server) ReadTimeoutDuration() time.Duration { return duration(s.ReadTimeout) }

// WriteTimeoutDuration returns the server write timeout.
func (s *Server) WriteTimeoutDuration() time.Duration { return duration(s.WriteTimeout) }

// ShutdownTimeoutDuration returns the graceful shutdown timeout.
func (s *Server) ShutdownTimeoutDuration() time.Duration { return duration(s.ShutdownTimeout) }
