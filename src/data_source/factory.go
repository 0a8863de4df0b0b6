package datasource

import (
	"fmt"

	"chart-stream/src/interfaces"
	"chart-stream/src/logger"
	"chart-stream/src/models"
	"chart-stream/src/network"
)

// SQLProviderFactory opens a database-backed provider. It is supplied by the
// caller so this package does not depend on the storage drivers.
type SQLProviderFactory func(cfg *models.MConfig, log *logger.Logger) (interfaces.IDataProvider, error)

// NewProvider builds the provider named in cfg.Data.Provider.
func NewProvider(cfg *models.MConfig, log *logger.Logger, sqlProviders map[string]SQLProviderFactory) (interfaces.IDataProvider, error) {
	name := cfg.Data.Provider
	if name == "" || name == JSONProviderName {
		return NewJSONProvider(network.NewHTTPFetcher(cfg, log.Named("http")), log.Named(JSONProviderName)), nil
	}

	factory, ok := sqlProviders[name]
	if !ok {
		return nil, fmt.Errorf("unknown data provider: %s", name)
	}
	return factory(cfg, log.Named(name))
}
