// Package tokenstore persists the bearer credential of one backend origin.
package tokenstore

import (
	"fmt"
	"io"

	"github.com/civicspot/internal/constants"
	"github.com/civicspot/internal/domain"
)

// Store is a domain.TokenStore that holds resources until closed.
type Store interface {
	domain.TokenStore
	io.Closer
}

// Open returns the store selected by driver. path is ignored by the memory driver.
func Open(driver, path string, origin domain.Origin) (Store, error) {
	if origin.IsZero() {
		return nil, domain.WrapRequiredField("origin")
	}

	switch driver {
	case constants.TokenStoreSQLite:
		store, err := OpenSQLite(path, origin)
		if err != nil {
			return nil, err
		}
		return store, nil
	case constants.TokenStoreFile:
		store, err := NewFileStore(path, origin)
		if err != nil {
			return nil, err
		}
		return store, nil
	case constants.TokenStoreMemory:
		return NewMemoryStore(), nil
	default:
		return nil, domain.WrapValidationError("token store driver", fmt.Errorf("unknown driver %q", driver))
	}
}
