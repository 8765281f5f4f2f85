package images

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/imagehub/backend/internal/models"
)

// OrphanSource yields the references recorded in the ledger.
type OrphanSource interface {
	Ledger
	PopObject(ctx context.Context) (string, bool, error)
	PopImage(ctx context.Context) (string, bool, error)
}

// Reconciler finishes operations that failed half way: media objects with no
// catalog record are removed, and catalog records whose object is gone are
// deleted.
type Reconciler struct {
	ledger  OrphanSource
	catalog Catalog
	media   MediaStore
	log     logrus.FieldLogger
}

func NewReconciler(ledger OrphanSource, catalog Catalog, media MediaStore, log logrus.FieldLogger) *Reconciler {
	return &Reconciler{ledger: ledger, catalog: catalog, media: media, log: log}
}

// SweepResult counts what a sweep resolved and what was put back.
type SweepResult struct {
	Objects  int
	Images   int
	Deferred int
}

// Sweep drains both ledger sets once. Items that fail again are put back and
// the sweep stops for that set, leaving them for the next run.
func (rc *Reconciler) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	n, deferred, err := rc.drain(ctx, rc.ledger.PopObject, rc.ledger.AddObject, func(ctx context.Context, publicID string) error {
		return rc.media.Remove(ctx, publicID)
	})
	res.Objects, res.Deferred = n, deferred
	if err != nil {
		return res, fmt.Errorf("sweep objects: %w", err)
	}

	n, deferred, err = rc.drain(ctx, rc.ledger.PopImage, rc.ledger.AddImage, func(ctx context.Context, id string) error {
		if err := rc.catalog.Delete(ctx, id); err != nil && !errors.Is(err, models.ErrNotFound) {
			return err
		}
		return nil
	})
	res.Images, res.Deferred = n, res.Deferred+deferred
	if err != nil {
		return res, fmt.Errorf("sweep images: %w", err)
	}

	if res.Objects+res.Images+res.Deferred > 0 {
		rc.log.WithFields(logrus.Fields{
			"objects":  res.Objects,
			"images":   res.Images,
			"deferred": res.Deferred,
		}).Info("reconcile: sweep finished")
	}
	return res, nil
}

func (rc *Reconciler) drain(
	ctx context.Context,
	pop func(context.Context) (string, bool, error),
	putBack func(context.Context, string) error,
	resolve func(context.Context, string) error,
) (resolved, deferred int, err error) {
	for ctx.Err() == nil {
		ref, ok, err := pop(ctx)
		if err != nil {
			return resolved, deferred, err
		}
		if !ok {
			return resolved, deferred, nil
		}
		if err := resolve(ctx, ref); err != nil {
			rc.log.WithError(err).WithField("ref", ref).Warn("reconcile: deferred")
			if perr := putBack(ctx, ref); perr != nil {
				return resolved, deferred, perr
			}
			return resolved, deferred + 1, nil
		}
		resolved++
	}
	return resolved, deferred, ctx.Err()
}
