package sources_test

import (
	"context"
	"errors"
	"testing"

	"patrimonio/internal/core"
	"patrimonio/internal/sources"
	"patrimonio/internal/sources/memory"
)

func TestReadDocument(t *testing.T) {
	ctx := context.Background()
	m := core.NewMonth(2024, 3)
	store := memory.New()

	doc, err := sources.ReadDocument(ctx, store, m)
	if err != nil || doc != nil {
		t.Fatalf("absent: doc=%v err=%v", doc, err)
	}

	store.Put("2024-03.json", []byte(`{"portfolio":[{"id":"cash","items":[]}]}`))
	doc, err = sources.ReadDocument(ctx, store, m)
	if err != nil || doc == nil || len(doc.Portfolio) != 1 {
		t.Fatalf("present: doc=%v err=%v", doc, err)
	}

	store.Put("2024-03.json", []byte(`{"nope":true}`))
	doc, err = sources.ReadDocument(ctx, store, m)
	if err != nil || doc != nil {
		t.Fatalf("malformed: doc=%v err=%v", doc, err)
	}

	store.FailOn("2024-03.json", core.ErrUnauthorized)
	if _, err := sources.ReadDocument(ctx, store, m); !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestReadTransfers(t *testing.T) {
	ctx := context.Background()
	m := core.NewMonth(2024, 3)
	store := memory.New()

	store.Put("transfers_2024-03.json", []byte(`[{"type":"deposit","category":"cash","source":"b","name":"w","amount":10}]`))
	ts, err := sources.ReadTransfers(ctx, store, m)
	if err != nil || len(ts) != 1 {
		t.Fatalf("bare list: %v %v", ts, err)
	}

	store.Put("transfers_2024-03.json", []byte(`{"transfers":"x"}`))
	ts, err = sources.ReadTransfers(ctx, store, m)
	if err != nil || len(ts) != 0 {
		t.Fatalf("malformed: %v %v", ts, err)
	}
}
