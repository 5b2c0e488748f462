package worker

import (
	"context"

	"patrimonio/internal/amqp"
	"patrimonio/internal/log"
	"patrimonio/internal/sources"
)

// EvictOnChange returns an AMQP handler that drops changed documents from
// a cache so the next read refetches them.
func EvictOnChange(inv sources.Invalidator, logger *log.Logger) func(context.Context, *amqp.DocumentChangedMessage) error {
	logger = logger.WithComponent(log.ComponentCache)
	return func(ctx context.Context, msg *amqp.DocumentChangedMessage) error {
		inv.Invalidate(msg.Name)
		logger.DebugContext(ctx, "Evicted changed document",
			log.FieldDocument, msg.Name, log.FieldOperation, log.OpEvict, "origin", msg.Origin)
		return nil
	}
}
