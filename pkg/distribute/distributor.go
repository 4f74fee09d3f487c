package distribute

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"

	"github.com/hashicorp-forge/hermes-distributor/pkg/lark"
)

// Request describes one template to copy.
type Request struct {
	// RecordID is an opaque correlation id, echoed back in the Result.
	RecordID string `json:"record_id"`

	// TemplateDocURL is the URL of the template document. Required.
	TemplateDocURL string `json:"template_doc_url"`

	// TargetFolderURL is the URL of the destination folder (optional).
	TargetFolderURL string `json:"target_folder_url"`
}

// Result is the outcome of a distribution. It always carries the RecordID.
type Result struct {
	OK          bool            `json:"ok"`
	RecordID    string          `json:"record_id"`
	NewDocToken string          `json:"new_doc_token,omitempty"`
	NewDocURL   string          `json:"new_doc_url,omitempty"`
	Error       string          `json:"error,omitempty"`
	Raw         json.RawMessage `json:"raw,omitempty"`

	// Kind is the failure class when OK is false.
	Kind lark.Kind `json:"-"`
}

// TokenProvider supplies bearer tokens per platform base address.
// *lark.TokenCache implements it.
type TokenProvider interface {
	Token(ctx context.Context, baseURL string) (*oauth2.Token, error)
	Invalidate(baseURL string)
}

// Copier performs the copy call. *lark.Client implements it.
type Copier interface {
	CopyFile(ctx context.Context, baseURL string, tok *oauth2.Token, fileToken, folderToken string) (*lark.CopyResult, error)
}

// Observer is notified of every finished distribution (optional).
type Observer interface {
	ObserveDistribution(result Result)
}

// Config contains configuration for a Distributor.
type Config struct {
	// DefaultFolderToken is used when the request has no usable folder URL.
	// Empty means copy next to the template.
	DefaultFolderToken string

	// TenantDomain is used to build a document URL when the platform did not
	// return one (e.g. "example.feishu.cn").
	TenantDomain string

	// IncludeRaw attaches the upstream copy response to successful results.
	IncludeRaw bool

	// Domains selects the platform base address from the template URL.
	// Default: lark.DefaultDomainSelector()
	Domains *lark.DomainSelector

	// Tokens supplies bearer tokens. Required.
	Tokens TokenProvider

	// Copier performs the copy call. Required.
	Copier Copier

	// Observer (optional).
	Observer Observer

	// Logger (optional).
	Logger hclog.Logger
}

// Distributor copies a template document into a destination folder.
type Distributor struct {
	defaultFolder string
	tenantDomain  string
	includeRaw    bool
	domains       lark.DomainSelector
	tokens        TokenProvider
	copier        Copier
	observer      Observer
	logger        hclog.Logger
}

// New creates a new Distributor.
func New(cfg Config) (*Distributor, error) {
	if cfg.Tokens == nil {
		return nil, errors.New("token provider is required")
	}
	if cfg.Copier == nil {
		return nil, errors.New("copier is required")
	}

	domains := lark.DefaultDomainSelector()
	if cfg.Domains != nil {
		domains = *cfg.Domains
	}
	if err := domains.Validate(); err != nil {
		return nil, fmt.Errorf("invalid domain configuration: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Distributor{
		defaultFolder: cfg.DefaultFolderToken,
		tenantDomain:  cfg.TenantDomain,
		includeRaw:    cfg.IncludeRaw,
		domains:       domains,
		tokens:        cfg.Tokens,
		copier:        cfg.Copier,
		observer:      cfg.Observer,
		logger:        logger.Named("distributor"),
	}, nil
}

// Distribute copies req.TemplateDocURL into the requested folder. It makes a
// single attempt per stage; every failure is reported in the Result.
func (d *Distributor) Distribute(ctx context.Context, req Request) Result {
	log := d.logger.With("record_id", req.RecordID)

	res, err := d.distribute(ctx, req)
	if err != nil {
		res = Result{
			RecordID: req.RecordID,
			Error:    err.Error(),
			Kind:     lark.KindOf(err),
		}
		log.Error("distribution failed",
			"kind", res.Kind,
			"template_doc_url", req.TemplateDocURL,
			"error", err,
		)
	} else {
		log.Info("distributed template",
			"new_doc_token", res.NewDocToken,
			"new_doc_url", res.NewDocURL,
		)
	}

	if d.observer != nil {
		d.observer.ObserveDistribution(res)
	}
	return res
}

func (d *Distributor) distribute(ctx context.Context, req Request) (Result, error) {
	const op = "Distribute"

	templateID := lark.ExtractResourceID(req.TemplateDocURL)
	if templateID == "" {
		return Result{}, lark.ValidationError(op, "template URL yields no identifier")
	}

	folderID := lark.ExtractResourceID(req.TargetFolderURL)
	if folderID == "" {
		folderID = d.defaultFolder
	}

	baseURL := d.domains.Select(req.TemplateDocURL)

	tok, err := d.tokens.Token(ctx, baseURL)
	if err != nil {
		return Result{}, err
	}

	copied, err := d.copier.CopyFile(ctx, baseURL, tok, templateID, folderID)
	if err != nil {
		// A token the platform no longer accepts is dropped so the next
		// request fetches a fresh one.
		var lerr *lark.Error
		if errors.As(err, &lerr) && lerr.StatusCode == http.StatusUnauthorized {
			d.tokens.Invalidate(baseURL)
		}
		return Result{}, err
	}

	res := Result{
		OK:          true,
		RecordID:    req.RecordID,
		NewDocToken: copied.Token,
		NewDocURL:   copied.URL,
	}
	if res.NewDocURL == "" && d.tenantDomain != "" {
		res.NewDocURL = DocumentURL(d.tenantDomain, copied.Token)
	}
	if d.includeRaw {
		res.Raw = copied.Raw
	}

	return res, nil
}

// DocumentURL builds the URL of a docx document on the tenant's domain.
func DocumentURL(tenantDomain, token string) string {
	return fmt.Sprintf("https://%s/docx/%s", tenantDomain, token)
}
