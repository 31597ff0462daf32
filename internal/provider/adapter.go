// Package provider translates between tracked search terms and the external
// search actors. Each adapter owns the actor input shape for one provider and
// the mapping from that provider's raw result items to canonical postings.
// The rest of the pipeline depends only on the Adapter interface.
package provider

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"

	"jobflow/aggregator-service/internal/model"
)

// ErrNoIdentifier is returned by MapItem when a raw result carries neither a
// provider-native id nor a link to derive a fallback key from.
var ErrNoIdentifier = errors.New("result has no usable identifier")

// Adapter shapes requests for and results from one external search provider.
type Adapter interface {
	// Name is the canonical provider name stored on postings and run records.
	Name() string

	// ActorID identifies the Apify actor in "<owner>~<actor>" form.
	ActorID() string

	// RunInput builds the provider-specific actor input for one search term.
	RunInput(term string, limit int) any

	// MapItem converts one raw dataset item to a canonical posting. The
	// originating term is recorded on the posting for later matching.
	MapItem(raw json.RawMessage, term string) (model.Posting, error)
}

// ExternalKey derives the stable dedup key for a posting: provider plus
// native id when the provider exposes one, otherwise provider plus a hash of
// the posting link.
func ExternalKey(provider, nativeID, link string) (string, error) {
	if nativeID != "" {
		return fmt.Sprintf("%s_%s", provider, nativeID), nil
	}
	if link != "" {
		h := sha256.Sum256([]byte(link))
		return fmt.Sprintf("%s_%x", provider, h[:16]), nil
	}
	return "", ErrNoIdentifier
}

// firstNonEmpty returns the first non-empty string, tolerating providers that
// rename fields between actor versions.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
