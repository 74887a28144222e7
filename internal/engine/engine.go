// Package engine renders dashboard panels of every supported type,
// including panels nested inside tab panels.
package engine

import (
	"context"
	"fmt"
	"html/template"
	"slices"

	"github.com/yuin/goldmark"

	"github.com/John-Robertt/dashpanel/internal/markup"
	"github.com/John-Robertt/dashpanel/internal/model"
	"github.com/John-Robertt/dashpanel/internal/tabpanel"
)

const DefaultMaxDepth = 8

type Options struct {
	Lookup tabpanel.Lookup
	Policy tabpanel.EditChecker

	// MaxDepth caps how many panels may enclose the one being rendered.
	// Zero means DefaultMaxDepth.
	MaxDepth int

	// NodeID overrides content node id generation (tests).
	NodeID markup.NodeIDFunc
}

// Request describes one panel render.
type Request struct {
	Viewer      model.Viewer
	Panel       *model.Panel
	ParentPHIDs []string
	HeaderMode  model.HeaderMode
	Movable     bool
	EditMode    bool
}

type Engine struct {
	tabs     *tabpanel.Renderer
	markdown goldmark.Markdown
	maxDepth int
}

func New(opts Options) *Engine {
	e := &Engine{
		markdown: newMarkdown(),
		maxDepth: opts.MaxDepth,
	}
	if e.maxDepth <= 0 {
		e.maxDepth = DefaultMaxDepth
	}
	e.tabs = &tabpanel.Renderer{
		Lookup: opts.Lookup,
		Policy: opts.Policy,
		Nested: e,
		NodeID: opts.NodeID,
	}
	return e
}

// RenderPanel renders req.Panel inside its frame. Recursive or overly deep
// nesting renders an error box in place of the panel body.
func (e *Engine) RenderPanel(ctx context.Context, req Request) (template.HTML, error) {
	if req.Panel == nil {
		return "", fmt.Errorf("engine: nil panel")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var body template.HTML
	switch {
	case slices.Contains(req.ParentPHIDs, req.Panel.PHID):
		body = errorBox("Panel Recursion",
			"This panel can not be rendered because it is embedded inside itself.")
	case len(req.ParentPHIDs) >= e.maxDepth:
		body = errorBox("Panel Nesting Too Deep",
			fmt.Sprintf("This panel can not be rendered because it is nested more than %d panels deep.", e.maxDepth))
	default:
		var err error
		body, err = e.renderBody(ctx, req)
		if err != nil {
			return "", err
		}
	}
	return frame(req, body), nil
}

// RenderNested implements tabpanel.Nested.
func (e *Engine) RenderNested(ctx context.Context, req tabpanel.NestedRequest) (template.HTML, error) {
	return e.RenderPanel(ctx, Request{
		Viewer:      req.Viewer,
		Panel:       req.Panel,
		ParentPHIDs: req.ParentPHIDs,
		HeaderMode:  req.HeaderMode,
		Movable:     req.Movable,
	})
}

func (e *Engine) renderBody(ctx context.Context, req Request) (template.HTML, error) {
	switch req.Panel.Type {
	case model.PanelTypeTabs:
		return e.tabs.Render(ctx, req.Panel, model.RenderContext{
			Viewer:      req.Viewer,
			EditMode:    req.EditMode,
			HeaderMode:  req.HeaderMode,
			ParentPHIDs: req.ParentPHIDs,
		})
	case model.PanelTypeText:
		return e.renderText(req.Panel)
	default:
		return errorBox("Unknown Panel Type",
			fmt.Sprintf("Panel type %q is not supported.", req.Panel.Type)), nil
	}
}

func frame(req Request, body template.HTML) template.HTML {
	p := req.Panel
	class := "dashboard-panel"
	attrs := markup.Attrs{}
	if req.Movable {
		class = markup.Classes(class, "dashboard-panel-movable")
		attrs["data-panel-phid"] = p.PHID
	}
	attrs["class"] = class

	var header template.HTML
	if req.HeaderMode == model.HeaderNormal {
		name := p.Name
		if name == "" {
			name = "Untitled Panel"
		}
		header = markup.Tag("div", markup.Attrs{"class": "dashboard-panel-header"},
			markup.Tag("h2", markup.Attrs{"class": "dashboard-panel-title"},
				markup.Tag("a", markup.Attrs{"href": p.URI()}, name)))
	}
	return markup.Tag("div", attrs, header,
		markup.Tag("div", markup.Attrs{"class": "dashboard-panel-body"}, body))
}

func errorBox(title, message string) template.HTML {
	return markup.Tag("div", markup.Attrs{"class": "dashboard-panel-error"},
		markup.Tag("h3", markup.Attrs{"class": "dashboard-panel-error-title"}, title),
		markup.Tag("p", nil, message))
}
