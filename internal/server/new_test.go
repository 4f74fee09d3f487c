package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/hermes-distributor/internal/config"
	"github.com/hashicorp-forge/hermes-distributor/pkg/distribute"
	"github.com/hashicorp-forge/hermes-distributor/pkg/lark"
)

func TestNew(t *testing.T) {
	platform := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == lark.DefaultTokenPath {
			w.Write([]byte(`{"code":0,"tenant_access_token":"tok"}`))
			return
		}
		w.Write([]byte(`{"data":{"file":{"token":"newDoc1"}}}`))
	}))
	defer platform.Close()

	cfg := config.DefaultConfig()
	cfg.Lark.AppID = "cli_test"
	cfg.Lark.AppSecret = "secret"
	cfg.Lark.TenantDomain = "acme.feishu.cn"
	cfg.Lark.IncludeRawResponse = true
	cfg.Lark.DefaultBaseURL = platform.URL
	cfg.Lark.Domains = nil

	reg := prometheus.NewRegistry()
	srv, err := New(cfg, nil, reg)
	require.NoError(t, err)
	require.NotNil(t, srv.Metrics)
	require.NotNil(t, srv.Distributor)

	res := srv.Distributor.Distribute(context.Background(), distribute.Request{
		RecordID:       "r1",
		TemplateDocURL: "https://acme.feishu.cn/docx/abc",
	})
	require.True(t, res.OK, res.Error)
	assert.Equal(t, "newDoc1", res.NewDocToken)
	assert.Equal(t, "https://acme.feishu.cn/docx/newDoc1", res.NewDocURL)
	assert.NotEmpty(t, res.Raw)

	assert.Equal(t, 1.0, testutil.ToFloat64(srv.Metrics.DistributionsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.Metrics.TokenLookupsTotal.WithLabelValues(platform.URL, "miss")))
}

func TestNew_WithoutMetrics(t *testing.T) {
	srv, err := New(config.DefaultConfig(), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, srv.Metrics)

	res := srv.Distributor.Distribute(context.Background(), distribute.Request{
		RecordID:       "r1",
		TemplateDocURL: "https://acme.feishu.cn/docx/abc",
	})
	assert.False(t, res.OK)
	assert.Equal(t, lark.KindConfiguration, res.Kind)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Lark.CopyPath = "/no/placeholder"

	_, err := New(cfg, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lark client")
}
