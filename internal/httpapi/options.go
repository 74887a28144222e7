package httpapi

import (
	"context"
	"html/template"
	"log/slog"
	"time"

	"github.com/John-Robertt/dashpanel/internal/engine"
	"github.com/John-Robertt/dashpanel/internal/model"
	"github.com/John-Robertt/dashpanel/internal/policy"
	"github.com/John-Robertt/dashpanel/internal/tabpanel"
)

// PanelSource loads one panel the viewer may see; *store.Store implements
// it.
type PanelSource interface {
	ByID(ctx context.Context, viewer model.Viewer, id int64) (*model.Panel, error)
}

// PanelRenderer renders a panel with its frame; *engine.Engine implements
// it.
type PanelRenderer interface {
	RenderPanel(ctx context.Context, req engine.Request) (template.HTML, error)
}

// Options controls HTTP API runtime behavior.
type Options struct {
	Panels   PanelSource
	Renderer PanelRenderer

	// Policy decides whether ?edit=1 is honored. Defaults to
	// policy.Checker.
	Policy tabpanel.EditChecker

	// Ping reports backend health for /healthz; nil means always healthy.
	Ping func(ctx context.Context) error

	Logger *slog.Logger

	// RenderTimeout bounds loading and rendering one panel request.
	RenderTimeout time.Duration

	// ShowStackTraces adds stack traces to error pages. Leave off in
	// production.
	ShowStackTraces bool
}

func (o Options) withDefaults() Options {
	if o.RenderTimeout <= 0 {
		o.RenderTimeout = 10 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Policy == nil {
		o.Policy = policy.Checker{}
	}
	return o
}
