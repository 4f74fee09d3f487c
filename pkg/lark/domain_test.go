package lark

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainSelector_Select(t *testing.T) {
	s := DefaultDomainSelector()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"feishu document", "https://example.feishu.cn/docx/AbC123", FeishuBaseURL},
		{"feishu open platform", "https://open.feishu.cn/drive/abc123", FeishuBaseURL},
		{"lark document", "https://example.larksuite.com/docx/AbC123", LarkBaseURL},
		{"unknown host falls back", "https://docs.example.com/docx/AbC123", LarkBaseURL},
		{"empty falls back", "", LarkBaseURL},
		{"query does not pick the family", "https://example.feishu.cn/wiki?from=larksuite.com", FeishuBaseURL},
		{"query naming feishu stays on lark", "https://acme.larksuite.com/docx/abc?from=feishu.cn", LarkBaseURL},
		{"fragment naming feishu stays on lark", "https://acme.larksuite.com/docx/abc#feishu.cn", LarkBaseURL},
		{"host with port", "https://acme.feishu.cn:443/docx/abc", FeishuBaseURL},
		{"host is matched case-insensitively", "https://ACME.Feishu.CN/docx/abc", FeishuBaseURL},
		{"suffix must align with a label", "https://notfeishu.cn/docx/abc", LarkBaseURL},
		{"path naming feishu stays on lark", "https://docs.example.com/feishu.cn/abc", LarkBaseURL},
		{"bare host without scheme", "acme.feishu.cn/docx/abc", FeishuBaseURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Select(tt.url))
		})
	}
}

func TestDomainSelector_SelectTrimsTrailingSlash(t *testing.T) {
	s := DomainSelector{
		Families:       []DomainFamily{{Name: "test", HostSuffix: "feishu.cn", BaseURL: "http://127.0.0.1:8080/"}},
		DefaultBaseURL: "http://127.0.0.1:9090/",
	}

	assert.Equal(t, "http://127.0.0.1:8080", s.Select("https://x.feishu.cn/docx/a"))
	assert.Equal(t, "http://127.0.0.1:9090", s.Select("https://x.example.com/docx/a"))
}

func TestDomainSelector_Validate(t *testing.T) {
	tests := []struct {
		name     string
		selector DomainSelector
		errorMsg string
	}{
		{
			name:     "defaults are valid",
			selector: DefaultDomainSelector(),
		},
		{
			name:     "missing default",
			selector: DomainSelector{},
			errorMsg: "default",
		},
		{
			name: "bad scheme",
			selector: DomainSelector{
				Families:       []DomainFamily{{Name: "feishu", HostSuffix: "feishu.cn", BaseURL: "ftp://open.feishu.cn"}},
				DefaultBaseURL: LarkBaseURL,
			},
			errorMsg: "scheme",
		},
		{
			name: "missing host suffix",
			selector: DomainSelector{
				Families:       []DomainFamily{{Name: "feishu", BaseURL: FeishuBaseURL}},
				DefaultBaseURL: LarkBaseURL,
			},
			errorMsg: "host_suffix",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.selector.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.errorMsg)
			}
		})
	}
}
