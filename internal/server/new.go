package server

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hashicorp-forge/hermes-distributor/internal/config"
	"github.com/hashicorp-forge/hermes-distributor/internal/metrics"
	"github.com/hashicorp-forge/hermes-distributor/pkg/distribute"
	"github.com/hashicorp-forge/hermes-distributor/pkg/lark"
)

// New builds the platform client, token cache and distributor described by
// cfg. Metrics are registered with reg when it is non-nil.
func New(cfg *config.Config, log hclog.Logger, reg prometheus.Registerer) (Server, error) {
	if log == nil {
		log = hclog.NewNullLogger()
	}

	srv := Server{
		Config: cfg,
		Logger: log,
	}
	if reg != nil {
		srv.Metrics = metrics.New(reg)
	}

	clientCfg := cfg.LarkClientConfig()
	clientCfg.Logger = log
	client, err := lark.NewClient(clientCfg)
	if err != nil {
		return Server{}, fmt.Errorf("error creating lark client: %w", err)
	}

	cacheCfg := lark.TokenCacheConfig{
		Credentials: cfg.Credentials(),
		Issuer:      client,
		Logger:      log,
	}
	if srv.Metrics != nil {
		cacheCfg.Observer = srv.Metrics
	}
	cache, err := lark.NewTokenCache(cacheCfg)
	if err != nil {
		return Server{}, fmt.Errorf("error creating token cache: %w", err)
	}

	domains := cfg.DomainSelector()
	distCfg := distribute.Config{
		DefaultFolderToken: cfg.Lark.DefaultFolderToken,
		TenantDomain:       cfg.Lark.TenantDomain,
		IncludeRaw:         cfg.Lark.IncludeRawResponse,
		Domains:            &domains,
		Tokens:             cache,
		Copier:             client,
		Logger:             log,
	}
	if srv.Metrics != nil {
		distCfg.Observer = srv.Metrics
	}
	d, err := distribute.New(distCfg)
	if err != nil {
		return Server{}, fmt.Errorf("error creating distributor: %w", err)
	}
	srv.Distributor = d

	if !cfg.Credentials().Complete() {
		log.Warn("app_id or app_secret is not configured; distributions will fail until both are set")
	}

	return srv, nil
}
