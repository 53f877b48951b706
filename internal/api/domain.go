package api

import (
	"github.com/vamp-agent/vamp/internal/connectors"
	"github.com/vamp-agent/vamp/internal/credentials"
	"github.com/vamp-agent/vamp/internal/scans"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Scans       scans.System
	Credentials credentials.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	factory := connectors.NewFactory(&runtime.Connectors, runtime.Logger)

	scansSystem := scans.New(
		runtime.Vault,
		factory,
		runtime.Broadcast,
		runtime.Pagination,
		runtime.Logger,
	)

	credentialsSystem := credentials.New(
		runtime.Vault,
		runtime.Logger,
	)

	return &Domain{
		Scans:       scansSystem,
		Credentials: credentialsSystem,
	}
}
