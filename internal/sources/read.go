package sources

import (
	"context"
	"fmt"

	"patrimonio/internal/core"
	"patrimonio/internal/log"
)

// ReadDocument fetches and decodes a month's portfolio document. Absent
// months return nil. A document that does not decode is logged and treated
// as absent; only fetch failures are returned.
func ReadDocument(ctx context.Context, src DocumentSource, m core.Month) (*core.Document, error) {
	name := core.DocumentName(m)
	raw, found, err := src.FetchDocument(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	if !found {
		return nil, nil
	}
	doc, err := core.DecodeDocument(raw)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Ignoring malformed document",
			log.NewFields().WithDocument(name).WithOperation(log.OpDecode).WithError(err).ToSlice()...)
		return nil, nil
	}
	return doc, nil
}

// ReadTransfers fetches and decodes a month's transfer file. Absent or
// malformed files yield an empty list.
func ReadTransfers(ctx context.Context, src DocumentSource, m core.Month) ([]core.Transfer, error) {
	name := core.TransfersName(m)
	raw, found, err := src.FetchDocument(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	if !found {
		return nil, nil
	}
	f, err := core.DecodeTransferFile(raw)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Ignoring malformed transfer file",
			log.NewFields().WithDocument(name).WithOperation(log.OpDecode).WithError(err).ToSlice()...)
		return nil, nil
	}
	return f.Transfers, nil
}
