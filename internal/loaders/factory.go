package loaders

import (
	"errors"

	"go.uber.org/multierr"

	"github.com/tensility357/XRT/internal/config"
	"github.com/tensility357/XRT/pkg/types"
)

// NewTraceLoader builds the loader for the configured capture source.
func NewTraceLoader(cfg *config.Config) (types.TraceLoader, error) {
	if cfg.InputPath == "" {
		return nil, errors.New("no capture input configured")
	}
	return NewFileLoader(cfg.InputPath, cfg.BatchSize)
}

// CloseAll closes every loader and combines their errors.
func CloseAll(lds ...types.TraceLoader) error {
	var err error
	for _, l := range lds {
		if l != nil {
			err = multierr.Append(err, l.Close())
		}
	}
	return err
}
