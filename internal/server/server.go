package server

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/hermes-distributor/internal/config"
	"github.com/hashicorp-forge/hermes-distributor/internal/metrics"
	"github.com/hashicorp-forge/hermes-distributor/pkg/distribute"
)

// Distributor performs a single distribution. *distribute.Distributor
// implements it.
type Distributor interface {
	Distribute(ctx context.Context, req distribute.Request) distribute.Result
}

// Server contains the server configuration.
type Server struct {
	// Config is the config for the server.
	Config *config.Config

	// Distributor copies templates on behalf of the API handlers.
	Distributor Distributor

	// Metrics holds the Prometheus collectors (optional).
	Metrics *metrics.Metrics

	// Logger is the logger for the server.
	Logger hclog.Logger
}
