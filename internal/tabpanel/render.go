// Package tabpanel renders tab panels: a strip of tabs, each showing
// another dashboard panel.
package tabpanel

import (
	"context"
	"fmt"
	"html/template"

	"github.com/John-Robertt/dashpanel/internal/markup"
	"github.com/John-Robertt/dashpanel/internal/model"
)

// Lookup loads panels by id. Panels the viewer cannot see, or that do not
// exist, are absent from the result.
type Lookup interface {
	FindByIDs(ctx context.Context, viewer model.Viewer, ids []int64) (map[int64]*model.Panel, error)
}

type EditChecker interface {
	CanEdit(viewer model.Viewer, p *model.Panel) bool
}

// NestedRequest asks for one sub-panel to be rendered inside a tab.
type NestedRequest struct {
	Viewer      model.Viewer
	Panel       *model.Panel
	ParentPHIDs []string
	HeaderMode  model.HeaderMode
	Movable     bool
}

// Nested renders sub-panels; the dashboard rendering engine implements it.
type Nested interface {
	RenderNested(ctx context.Context, req NestedRequest) (template.HTML, error)
}

const (
	unnamedTab   = "Unnamed Tab"
	invalidPanel = "(Invalid Panel)"

	emptyViewMessage = "This tab panel does not have any tabs yet."
	emptyEditMessage = `This tab panel does not have any tabs yet. Use "Add Tab" to create or place a tab.`
)

type Renderer struct {
	Lookup Lookup
	Policy EditChecker
	Nested Nested

	// NodeID generates content container ids; nil means
	// markup.UniqueNodeID.
	NodeID markup.NodeIDFunc
}

// Render renders panel using its stored configuration.
func (r *Renderer) Render(ctx context.Context, panel *model.Panel, rc model.RenderContext) (template.HTML, error) {
	return r.RenderConfig(ctx, panel, ParseConfig(panel), rc)
}

// RenderConfig renders panel with an already decoded tab list. The first
// tab is always selected; selection is not remembered between renders.
func (r *Renderer) RenderConfig(ctx context.Context, panel *model.Panel, config []model.TabSpec, rc model.RenderContext) (template.HTML, error) {
	if panel == nil {
		return "", fmt.Errorf("tabpanel: nil panel")
	}
	nodeID := r.NodeID
	if nodeID == nil {
		nodeID = markup.UniqueNodeID
	}

	nodeIDs := make(map[int]string, len(config))
	for idx := range config {
		nodeIDs[idx] = nodeID()
	}

	panels := map[int64]*model.Panel{}
	if ids := panelIDs(config); len(ids) > 0 {
		found, err := r.Lookup.FindByIDs(ctx, rc.Viewer, ids)
		if err != nil {
			return "", fmt.Errorf("load tab panels: %w", err)
		}
		panels = found
	}
	subpanel := func(spec model.TabSpec) *model.Panel {
		if spec.PanelID == 0 {
			return nil
		}
		return panels[spec.PanelID]
	}

	const selected = 0

	var body template.HTML
	if len(config) == 0 {
		body = r.renderEmpty(panel, rc)
	} else {
		tabs := make([]template.HTML, 0, len(config)+1)
		for idx, spec := range config {
			tabs = append(tabs, r.renderTab(panel, idx, spec, subpanel(spec), idx == selected, rc))
		}
		if rc.EditMode {
			tabs = append(tabs, renderAddTab(panel, len(config)-1))
		}
		strip := markup.Tag("ul", markup.Attrs{"class": "tab-panel-strip"}, tabs)

		content := make([]template.HTML, 0, len(config))
		for idx, spec := range config {
			c, err := r.renderContent(ctx, panel, spec, subpanel(spec), rc)
			if err != nil {
				return "", err
			}
			style := "display: none"
			if idx == selected {
				style = ""
			}
			content = append(content, markup.Tag("div", markup.Attrs{
				"id":    nodeIDs[idx],
				"class": "tab-panel-content",
				"style": style,
			}, c))
		}
		body = markup.Join(strip, markup.Join(content...))
	}

	return markup.Tag("div", markup.Attrs{
		"class":         "dashboard-tab-panel",
		"data-sigil":    "dashboard-tab-panel-container",
		"data-behavior": "dashboard-tab-panel",
		"data-meta":     markup.Meta(map[string]any{"panels": nodeIDs}),
	}, body), nil
}

// TabLabel picks the label shown for a tab.
func TabLabel(spec model.TabSpec, sub *model.Panel) string {
	if spec.Name != "" {
		return spec.Name
	}
	if sub != nil && sub.Name != "" {
		return sub.Name
	}
	return unnamedTab
}

func (r *Renderer) renderTab(panel *model.Panel, idx int, spec model.TabSpec, sub *model.Panel, isSelected bool, rc model.RenderContext) template.HTML {
	class := "tab-panel-tab"
	if isSelected {
		class = markup.Classes(class, "tab-panel-tab-selected")
	}
	link := markup.Tag("a", markup.Attrs{"href": "#", "class": "tab-panel-tab-link"}, TabLabel(spec, sub))

	var menu template.HTML
	if rc.EditMode {
		menu = renderActionList("tab-panel-tab-menu", r.tabActions(panel, idx, spec, sub, rc.Viewer))
	}
	return markup.Tag("li", markup.Attrs{
		"class":      class,
		"data-sigil": "dashboard-tab-panel-tab",
		"data-meta":  markup.Meta(map[string]int{"idx": idx}),
	}, link, menu)
}

func (r *Renderer) tabActions(panel *model.Panel, idx int, spec model.TabSpec, sub *model.Panel, viewer model.Viewer) []Action {
	canEdit := false
	details := ""
	if sub != nil {
		details = sub.URI()
		canEdit = r.Policy != nil && r.Policy.CanEdit(viewer, sub)
	}
	return []Action{
		{Name: "Rename Tab", Icon: "fa-pencil", Href: renameTabURI(panel.ID, idx), Workflow: true},
		{Name: "Remove Tab", Icon: "fa-times", Href: removeTabURI(panel.ID, idx), Workflow: true},
		{Divider: true},
		{Name: "Edit Panel", Icon: "fa-pencil", Href: editPanelURI(spec.PanelID), Workflow: true, Disabled: !canEdit},
		{Name: "View Panel Details", Icon: "fa-window-maximize", Href: details, Disabled: sub == nil},
	}
}

func renderAddTab(panel *model.Panel, lastIdx int) template.HTML {
	menu := renderActionList("tab-panel-tab-menu", []Action{
		{Name: "Add Existing Panel", Icon: "fa-window-maximize", Href: addTabURI(panel.ID, lastIdx), Workflow: true},
	})
	return markup.Tag("li", markup.Attrs{"class": "tab-panel-tab tab-panel-add-tab"},
		markup.Tag("a", markup.Attrs{"href": "#", "class": "tab-panel-tab-link"}, "Add Tab..."),
		menu,
	)
}

func (r *Renderer) renderContent(ctx context.Context, panel *model.Panel, spec model.TabSpec, sub *model.Panel, rc model.RenderContext) (template.HTML, error) {
	if sub == nil {
		return markup.Escape(invalidPanel), nil
	}
	html, err := r.Nested.RenderNested(ctx, NestedRequest{
		Viewer:      rc.Viewer,
		Panel:       sub,
		ParentPHIDs: rc.WithParent(panel.PHID),
		HeaderMode:  model.HeaderNone,
		Movable:     false,
	})
	if err != nil {
		return "", fmt.Errorf("render tab panel %d: %w", spec.PanelID, err)
	}
	return html, nil
}

func (r *Renderer) renderEmpty(panel *model.Panel, rc model.RenderContext) template.HTML {
	message := emptyViewMessage
	var actions template.HTML
	if rc.EditMode {
		message = emptyEditMessage
		actions = markup.Tag("div", markup.Attrs{"class": "tab-panel-empty-actions"},
			markup.Tag("ul", markup.Attrs{"class": "tab-panel-add-list"}, renderAddTab(panel, -1)))
	}
	info := markup.Tag("div", markup.Attrs{"class": "info-view info-view-nodata"},
		markup.Tag("p", nil, message))
	return markup.Tag("div", markup.Attrs{"class": "tab-panel-empty mlt mlb"}, info, actions)
}
