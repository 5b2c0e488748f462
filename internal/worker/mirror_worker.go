// Package worker copies documents between stores and reacts to document
// change notifications.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"patrimonio/internal/core"
	"patrimonio/internal/log"
	"patrimonio/internal/sources"
	"patrimonio/internal/storage"
)

type (
	// Remote is where documents are copied from.
	Remote interface {
		sources.DocumentSource
		sources.DocumentLister
	}

	// Target stores copied documents and keeps a log of passes.
	Target interface {
		sources.DocumentLister
		Put(ctx context.Context, name string, body []byte) (changed bool, err error)
		Delete(ctx context.Context, name string) (existed bool, err error)
		RecordMirrorRun(ctx context.Context, run storage.MirrorRun) error
	}

	// Publisher announces changed documents. It is optional.
	Publisher interface {
		PublishDocumentChanged(ctx context.Context, name, origin string) error
	}
)

// MirrorWorker copies every monthly document and transfer file from a
// remote source into the local store, announcing the ones whose body
// changed.
type MirrorWorker struct {
	remote    Remote
	target    Target
	publisher Publisher
	origin    string
	prune     bool
	logger    *log.Logger
	now       func() time.Time
}

// NewMirrorWorker builds a worker. origin tags the change notifications it
// publishes; publisher may be nil.
func NewMirrorWorker(remote Remote, target Target, publisher Publisher, origin string, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Nop()
	}
	return &MirrorWorker{
		remote:    remote,
		target:    target,
		publisher: publisher,
		origin:    origin,
		logger:    logger.WithComponent(log.ComponentWorker),
		now:       time.Now,
	}
}

// WithPrune makes every pass delete stored documents the remote no longer
// lists. Passes with fetch errors never prune.
func (w *MirrorWorker) WithPrune(prune bool) *MirrorWorker {
	w.prune = prune
	return w
}

// SyncOnce runs a single pass and records it. A failure on one document
// does not stop the pass; all of them are returned joined once every
// document was tried. Publishing failures are only logged.
func (w *MirrorWorker) SyncOnce(ctx context.Context) (storage.MirrorRun, error) {
	run := storage.MirrorRun{StartedAt: w.now().UTC()}
	err := w.sync(ctx, &run)
	run.FinishedAt = w.now().UTC()
	if err != nil {
		run.Err = err.Error()
	}

	if recErr := w.target.RecordMirrorRun(ctx, run); recErr != nil {
		w.logger.ErrorContext(ctx, "Failed to record mirror run", log.FieldError, recErr)
	}

	fields := log.NewFields().WithOperation(log.OpMirror).WithError(err)
	fields["scanned"] = run.Scanned
	fields["changed"] = run.Changed
	fields["removed"] = run.Removed
	fields["duration_ms"] = run.FinishedAt.Sub(run.StartedAt).Milliseconds()
	if err != nil {
		w.logger.ErrorContext(ctx, "Mirror pass failed", fields.ToSlice()...)
	} else {
		w.logger.InfoContext(ctx, "Mirror pass completed", fields.ToSlice()...)
	}
	return run, err
}

func (w *MirrorWorker) sync(ctx context.Context, run *storage.MirrorRun) error {
	names, err := w.remote.ListNames(ctx)
	if err != nil {
		return fmt.Errorf("list remote documents: %w", err)
	}

	listed := make(map[string]struct{}, len(names))
	var errs []error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if !core.IsStoredName(name) {
			continue
		}
		listed[name] = struct{}{}
		run.Scanned++

		changed, err := w.copy(ctx, name)
		if err != nil {
			w.logger.WarnContext(ctx, "Failed to mirror document",
				log.NewFields().WithDocument(name).WithOperation(log.OpMirror).WithError(err).ToSlice()...)
			errs = append(errs, err)
			continue
		}
		if !changed {
			continue
		}
		run.Changed++
		w.announce(ctx, name)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if w.prune {
		return w.removeUnlisted(ctx, listed, run)
	}
	return nil
}

func (w *MirrorWorker) removeUnlisted(ctx context.Context, listed map[string]struct{}, run *storage.MirrorRun) error {
	stored, err := w.target.ListNames(ctx)
	if err != nil {
		return fmt.Errorf("list stored documents: %w", err)
	}
	var errs []error
	for _, name := range stored {
		if _, ok := listed[name]; ok || !core.IsStoredName(name) {
			continue
		}
		existed, err := w.target.Delete(ctx, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", name, err))
			continue
		}
		if existed {
			run.Removed++
			w.announce(ctx, name)
		}
	}
	return errors.Join(errs...)
}

func (w *MirrorWorker) copy(ctx context.Context, name string) (bool, error) {
	raw, found, err := w.remote.FetchDocument(ctx, name)
	if err != nil {
		return false, fmt.Errorf("fetch %s: %w", name, err)
	}
	if !found {
		// listed but gone by the time it was fetched
		return false, nil
	}
	changed, err := w.target.Put(ctx, name, raw)
	if err != nil {
		return false, fmt.Errorf("store %s: %w", name, err)
	}
	return changed, nil
}

func (w *MirrorWorker) announce(ctx context.Context, name string) {
	w.logger.DebugContext(ctx, "Document changed", log.FieldDocument, name)
	if w.publisher == nil {
		return
	}
	if err := w.publisher.PublishDocumentChanged(ctx, name, w.origin); err != nil {
		w.logger.WarnContext(ctx, "Failed to publish document change",
			log.NewFields().WithDocument(name).WithError(err).ToSlice()...)
	}
}

// Run syncs immediately and then every interval until ctx is done.
func (w *MirrorWorker) Run(ctx context.Context, interval time.Duration) error {
	w.logger.InfoContext(ctx, "Mirror worker started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_, _ = w.SyncOnce(ctx)
		select {
		case <-ctx.Done():
			w.logger.Info("Mirror worker stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
