package scrape

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"jobflow/aggregator-service/internal/provider"
	"jobflow/aggregator-service/internal/storage"
)

// Ingester merges one provider's raw result batch into the canonical store.
// Every step is per-record: a malformed item, an irrelevant title or a failed
// insert skips that record and never aborts the batch.
type Ingester struct {
	store storage.Store
	log   *zap.Logger
}

// NewIngester returns an Ingester writing through the given store.
func NewIngester(store storage.Store, log *zap.Logger) *Ingester {
	return &Ingester{store: store, log: log}
}

// Ingest maps, filters and persists a raw result batch for one (provider,
// term) pair. found is the raw batch size; saved counts only newly created
// rows — re-ingesting a known external key is a no-op.
func (in *Ingester) Ingest(ctx context.Context, adapter provider.Adapter, term string, items []json.RawMessage) (found, saved int) {
	found = len(items)

	for _, raw := range items {
		posting, err := adapter.MapItem(raw, term)
		if err != nil {
			in.log.Warn("skipping unmappable result",
				zap.String("provider", adapter.Name()),
				zap.String("term", term),
				zap.Error(err),
			)
			continue
		}

		if !TitleMatches(posting.Title, term) {
			continue
		}

		posting.Description = TruncateDescription(posting.Description)

		created, err := in.store.InsertPosting(ctx, &posting)
		if err != nil {
			in.log.Warn("posting insert failed",
				zap.String("external_id", posting.ExternalID),
				zap.Error(err),
			)
			continue
		}
		if created {
			saved++
		}
	}

	return found, saved
}
