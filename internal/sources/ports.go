// Package sources defines the port every document backend implements and
// the helpers the services use to read typed documents through it.
package sources

import (
	"context"

	"patrimonio/internal/core"
)

// Ports for outbound adapters.
type (
	// DocumentSource fetches raw JSON documents by name. A missing document
	// is reported as found=false with a nil error. Credential failures wrap
	// core.ErrUnauthorized.
	DocumentSource interface {
		FetchDocument(ctx context.Context, name string) (raw []byte, found bool, err error)
		// ListAvailable returns the months that have a monthly document,
		// oldest first.
		ListAvailable(ctx context.Context) ([]core.Entry, error)
	}

	// DocumentLister is implemented by sources that can enumerate every
	// stored name, transfer files included. The mirror worker needs it.
	DocumentLister interface {
		ListNames(ctx context.Context) ([]string, error)
	}

	// Invalidator drops any cached copy of a document.
	Invalidator interface {
		Invalidate(name string)
	}
)
