package plans

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ludens-school/paywidget/pkg/logger"
)

// Source returns the raw decoded catalog document for a currency.
type Source interface {
	Plans(ctx context.Context, currency string) (any, error)
}

// Fetcher loads catalogs from a Source and applies the result to a Snapshot.
//
// The three steps are split so callers can hold a lock around Begin and
// Complete while leaving Fetch unlocked:
//
//	if f.Begin(ctx, &snap) {      // under lock
//		cat, err := f.Fetch(ctx)  // no lock
//		f.Complete(ctx, &snap, cat, err) // under lock
//	}
type Fetcher struct {
	source   Source
	currency string
	log      *slog.Logger
}

type FetcherOption func(*Fetcher)

func WithLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l
		}
	}
}

func NewFetcher(source Source, currency string, opts ...FetcherOption) (*Fetcher, error) {
	if source == nil {
		return nil, ErrNilSource
	}
	f := &Fetcher{source: source, currency: currency, log: logger.Nop()}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Fetcher) Currency() string { return f.currency }

// Begin moves snap to loading. It reports false when a load is already in
// flight or the catalog is loaded.
func (f *Fetcher) Begin(ctx context.Context, snap *Snapshot) bool {
	next, err := Lifecycle.Fire(ctx, snap.current(), EventLoad)
	if err != nil {
		return false
	}
	snap.Status = next
	snap.Error = ""
	return true
}

// Fetch calls the source and builds the catalog.
func (f *Fetcher) Fetch(ctx context.Context) (Catalog, error) {
	start := time.Now()
	doc, err := f.source.Plans(ctx, f.currency)
	if err != nil {
		f.log.WarnContext(ctx, "plan catalog fetch failed",
			logger.Component("plans"),
			logger.Duration(time.Since(start)),
			logger.Error(err),
		)
		return nil, err
	}

	list := Normalize(doc)
	cat := BuildCatalog(list)
	f.log.DebugContext(ctx, "plan catalog fetched",
		logger.Component("plans"),
		logger.Duration(time.Since(start)),
		slog.Int("entries", len(list)),
		slog.Int("usable", len(cat)),
	)
	return cat, nil
}

// Complete applies a Fetch result. On failure the previous catalog is kept.
func (f *Fetcher) Complete(ctx context.Context, snap *Snapshot, cat Catalog, fetchErr error) error {
	event := EventSucceed
	if fetchErr != nil {
		event = EventFail
	}
	next, err := Lifecycle.Fire(ctx, snap.current(), event)
	if err != nil {
		return errors.Join(ErrNotLoading, err)
	}

	snap.Status = next
	if fetchErr != nil {
		snap.Error = fetchErr.Error()
		return nil
	}
	snap.Catalog = cat
	snap.Error = ""
	return nil
}

// Load runs all three steps on snap without any locking.
func (f *Fetcher) Load(ctx context.Context, snap *Snapshot) error {
	if !f.Begin(ctx, snap) {
		if snap.Loaded() {
			return ErrAlreadyLoaded
		}
		return ErrAlreadyLoading
	}
	cat, err := f.Fetch(ctx)
	if cerr := f.Complete(ctx, snap, cat, err); cerr != nil {
		return cerr
	}
	return err
}
