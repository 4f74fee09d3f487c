package version

// Version is the version of the distributor. It is overridden at build time
// with -ldflags "-X github.com/hashicorp-forge/hermes-distributor/internal/version.Version=...".
var Version = "0.1.0-dev"
