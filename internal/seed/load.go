package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/dashpanel/internal/engine"
	"github.com/John-Robertt/dashpanel/internal/fetch"
	"github.com/John-Robertt/dashpanel/internal/model"
)

// Writer stores a batch of panels atomically; *store.Store implements it.
type Writer interface {
	PutAll(ctx context.Context, panels []*model.Panel) error
}

// maxTextFetches bounds concurrent text_url fetches.
const maxTextFetches = 4

type Options struct {
	Fetch fetch.Options
}

// Load reads a fixture from a local path or an http(s) URL, then fetches
// any remote markdown sources it references.
func Load(ctx context.Context, source string, opts Options) ([]*model.Panel, error) {
	var content string
	if fetch.IsRemote(source) {
		s, err := fetch.FetchTextWithOptions(ctx, fetch.KindFixture, source, opts.Fetch)
		if err != nil {
			return nil, err
		}
		content = s
	} else {
		b, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read fixture: %w", err)
		}
		content = string(b)
	}

	f, err := ParseFixtureYAML(source, content)
	if err != nil {
		return nil, err
	}

	panels := make([]*model.Panel, len(f.Entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxTextFetches)
	for i, e := range f.Entries {
		panels[i] = e.Panel
		if e.TextURL == "" {
			continue
		}
		g.Go(func() error {
			text, err := fetch.FetchTextWithOptions(gctx, fetch.KindMarkdown, e.TextURL, opts.Fetch)
			if err != nil {
				return fmt.Errorf("panel %d text: %w", e.Panel.ID, err)
			}
			e.Panel.Properties[engine.TextProperty] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return panels, nil
}

// Apply writes panels in fixture order, all or nothing.
func Apply(ctx context.Context, w Writer, panels []*model.Panel, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if err := w.PutAll(ctx, panels); err != nil {
		return fmt.Errorf("seed panels: %w", err)
	}
	for _, p := range panels {
		logger.Info("seeded panel", "id", p.ID, "phid", p.PHID, "type", p.Type)
	}
	return nil
}
