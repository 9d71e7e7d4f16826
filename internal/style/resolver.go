package style

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/yt-thumbnail-wizard/internal/metrics"
	"github.com/fpang/yt-thumbnail-wizard/internal/wizard"
)

// WarnListingFailed is attached to a catalog that could not be listed.
const WarnListingFailed = "style catalog unavailable, continuing without styles"

// Source is a flat container of style assets.
type Source interface {
	// List returns every object name in the container, in listing order.
	List(ctx context.Context) ([]string, error)
	// PublicURL returns the address a browser can load name from.
	PublicURL(name string) string
}

// Catalog is the result of one refresh.
type Catalog struct {
	Options []Option `json:"styles"`
	Warning string   `json:"warning,omitempty"`
}

// Resolver caches the most recent listing. It is safe for concurrent use;
// each refresh replaces the cached listing wholesale.
type Resolver struct {
	src Source

	mu sync.RWMutex
	// names maps lower-cased object names to the listed name.
	names   map[string]string
	catalog []Option
}

// NewResolver creates a Resolver over src. Nothing is listed until Refresh.
func NewResolver(src Source) *Resolver {
	return &Resolver{src: src, names: map[string]string{}}
}

// Refresh lists the container and rebuilds the catalog. A listing failure
// is not an error: the catalog comes back empty with a warning.
func (r *Resolver) Refresh(ctx context.Context) Catalog {
	start := time.Now()
	names, err := r.src.List(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Style listing failed")
		metrics.New(metrics.Namespace).
			Dimension("Operation", "styleCatalog").
			Count("StyleListingFailure").
			Flush()
		r.store(nil, nil)
		return Catalog{Options: []Option{}, Warning: WarnListingFailed}
	}

	opts := Derive(names, r.src.PublicURL)
	r.store(names, opts)

	log.Debug().
		Int("objects", len(names)).
		Int("styles", len(opts)).
		Dur("elapsed", time.Since(start)).
		Msg("Style catalog refreshed")
	metrics.New(metrics.Namespace).
		Dimension("Operation", "styleCatalog").
		Metric("StyleCatalogSize", float64(len(opts)), metrics.UnitCount).
		Metric("StyleListingMs", float64(time.Since(start).Milliseconds()), metrics.UnitMilliseconds).
		Flush()

	return Catalog{Options: opts}
}

// Options returns the catalog from the last refresh.
func (r *Resolver) Options() []Option {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Option, len(r.catalog))
	copy(out, r.catalog)
	return out
}

// Revalidate returns selected if it is in the current catalog, otherwise the
// first catalog id, otherwise "".
func (r *Resolver) Revalidate(selected string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.catalog {
		if o.ID == selected {
			return selected
		}
	}
	if len(r.catalog) > 0 {
		return r.catalog[0].ID
	}
	return ""
}

// PreviewURL probes id with each known suffix against the last listing and
// returns the first hit, ignoring case as the catalog filter does. ok is
// false when no candidate exists.
func (r *Resolver) PreviewURL(id string) (url string, ok bool) {
	if id == "" {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, suffix := range probeSuffixes {
		if name, found := r.names[strings.ToLower(id+suffix)]; found {
			return r.src.PublicURL(name), true
		}
	}
	return "", false
}

// AfterFaceUpload refreshes the catalog once a face upload is confirmed and
// revalidates the session's selection against it.
func (r *Resolver) AfterFaceUpload(ctx context.Context, s *wizard.Session) Catalog {
	return r.sync(ctx, s)
}

// EnterStyleStep refreshes the catalog when the session arrives at the style
// step and revalidates the session's selection against it.
func (r *Resolver) EnterStyleStep(ctx context.Context, s *wizard.Session) Catalog {
	return r.sync(ctx, s)
}

// sync clears the selection when the catalog comes back empty, including
// after a failed listing.
func (r *Resolver) sync(ctx context.Context, s *wizard.Session) Catalog {
	cat := r.Refresh(ctx)
	if next := r.Revalidate(s.SelectedStyleID); next != s.SelectedStyleID {
		log.Debug().
			Str("sessionId", s.ID).
			Str("from", s.SelectedStyleID).
			Str("to", next).
			Msg("Style selection revalidated")
		s.SetField(wizard.FieldSelectedStyle, next)
	}
	return cat
}

func (r *Resolver) store(names []string, opts []Option) {
	set := make(map[string]string, len(names))
	for _, n := range names {
		key := strings.ToLower(n)
		if _, dup := set[key]; !dup {
			set[key] = n
		}
	}
	if opts == nil {
		opts = []Option{}
	}
	r.mu.Lock()
	r.names = set
	r.catalog = opts
	r.mu.Unlock()
}
