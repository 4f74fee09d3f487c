package lark

import (
	"fmt"
	"net/url"
	"strings"
)

// Base addresses of the two public platform deployments.
const (
	FeishuBaseURL = "https://open.feishu.cn"
	LarkBaseURL   = "https://open.larksuite.com"
)

// DomainFamily maps document hosts to the API host serving them.
type DomainFamily struct {
	// Name labels the family in logs and metrics (e.g. "feishu").
	Name string

	// HostSuffix is matched against the host of the document URL
	// (e.g. "feishu.cn" matches "acme.feishu.cn").
	HostSuffix string

	// BaseURL is the API base address for documents of this family.
	BaseURL string
}

// DomainSelector picks the API base address for a document URL.
type DomainSelector struct {
	// Families are evaluated in order; the first match wins.
	Families []DomainFamily

	// DefaultBaseURL is used when no family matches.
	DefaultBaseURL string
}

// DefaultDomainSelector returns the selector for the public Feishu and Lark
// deployments. Unknown hosts are routed to Lark.
func DefaultDomainSelector() DomainSelector {
	return DomainSelector{
		Families: []DomainFamily{
			{Name: "feishu", HostSuffix: "feishu.cn", BaseURL: FeishuBaseURL},
			{Name: "lark", HostSuffix: "larksuite.com", BaseURL: LarkBaseURL},
		},
		DefaultBaseURL: LarkBaseURL,
	}
}

// Select returns the base address for docURL. It is a pure function of its
// input and the selector's configuration.
//
// Families are matched against the URL's host. Inputs without a host, such as
// a bare "acme.feishu.cn/docx/abc", are matched as a whole string.
func (s DomainSelector) Select(docURL string) string {
	host := ""
	if u, err := url.Parse(strings.TrimSpace(docURL)); err == nil {
		host = strings.ToLower(u.Hostname())
	}

	for _, f := range s.Families {
		if f.HostSuffix == "" {
			continue
		}
		suffix := strings.ToLower(strings.TrimPrefix(f.HostSuffix, "."))
		if host != "" {
			if host == suffix || strings.HasSuffix(host, "."+suffix) {
				return strings.TrimRight(f.BaseURL, "/")
			}
			continue
		}
		if strings.Contains(strings.ToLower(docURL), suffix) {
			return strings.TrimRight(f.BaseURL, "/")
		}
	}
	return strings.TrimRight(s.DefaultBaseURL, "/")
}

// Validate checks that every configured base address is an absolute http(s) URL.
func (s DomainSelector) Validate() error {
	check := func(name, raw string) error {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("%s: invalid base_url: %w", name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%s: base_url must use http or https scheme, got: %q", name, u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("%s: base_url must include a host", name)
		}
		return nil
	}

	if err := check("default", s.DefaultBaseURL); err != nil {
		return err
	}
	for _, f := range s.Families {
		if f.HostSuffix == "" {
			return fmt.Errorf("domain %q: host_suffix is required", f.Name)
		}
		if err := check(fmt.Sprintf("domain %q", f.Name), f.BaseURL); err != nil {
			return err
		}
	}
	return nil
}
