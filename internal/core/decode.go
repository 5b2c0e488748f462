package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeDocument parses a monthly portfolio document. A body that is not a
// JSON object with a portfolio list is reported as ErrMalformedDocument.
func DecodeDocument(raw []byte) (*Document, error) {
	var probe struct {
		Portfolio json.RawMessage `json:"portfolio"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	p := bytes.TrimSpace(probe.Portfolio)
	if len(p) == 0 || bytes.Equal(p, []byte("null")) {
		return nil, fmt.Errorf("%w: missing portfolio list", ErrMalformedDocument)
	}
	var doc Document
	if err := json.Unmarshal(p, &doc.Portfolio); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return &doc, nil
}

// DecodeTransferFile parses a transfer file. A bare list is read as
// {meta: {}, transfers: <list>}; an empty body is an empty file.
func DecodeTransferFile(raw []byte) (TransferFile, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return TransferFile{}, nil
	}
	if raw[0] == '[' {
		var list []Transfer
		if err := json.Unmarshal(raw, &list); err != nil {
			return TransferFile{}, fmt.Errorf("%w: %v", ErrMalformedTransfers, err)
		}
		return TransferFile{Transfers: list}, nil
	}
	var f TransferFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return TransferFile{}, fmt.Errorf("%w: %v", ErrMalformedTransfers, err)
	}
	return f, nil
}
