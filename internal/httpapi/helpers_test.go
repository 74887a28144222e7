package httpapi

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/John-Robertt/dashpanel/internal/engine"
	"github.com/John-Robertt/dashpanel/internal/model"
	"github.com/John-Robertt/dashpanel/internal/policy"
	"github.com/John-Robertt/dashpanel/internal/store"
)

// fakePanels serves panels from memory with the real visibility rules.
type fakePanels map[int64]*model.Panel

func (f fakePanels) FindByIDs(ctx context.Context, viewer model.Viewer, ids []int64) (map[int64]*model.Panel, error) {
	out := make(map[int64]*model.Panel)
	for _, id := range ids {
		if p, ok := f[id]; ok {
			out[id] = p
		}
	}
	return policy.Checker{}.FilterVisible(viewer, out), nil
}

func (f fakePanels) ByID(ctx context.Context, viewer model.Viewer, id int64) (*model.Panel, error) {
	found, _ := f.FindByIDs(ctx, viewer, []int64{id})
	if p, ok := found[id]; ok {
		return p, nil
	}
	return nil, &store.NotFoundError{ID: id, AppError: model.AppError{
		Code:    "PANEL_NOT_FOUND",
		Message: "panel does not exist or is not visible",
		Stage:   "load_panel",
	}}
}

type renderFunc func(ctx context.Context, req engine.Request) (template.HTML, error)

func (f renderFunc) RenderPanel(ctx context.Context, req engine.Request) (template.HTML, error) {
	return f(ctx, req)
}

func testPanels() fakePanels {
	return fakePanels{
		1: {ID: 1, PHID: "PHID-DSHP-notes", Name: "Notes", Type: model.PanelTypeText,
			ViewPolicy: model.PolicyPublic, EditPolicy: model.PolicyAdmin,
			Properties: map[string]any{"text": "**hello** world"}},
		2: {ID: 2, PHID: "PHID-DSHP-tabs", Name: "Team Tabs", Type: model.PanelTypeTabs,
			ViewPolicy: model.PolicyUsers, EditPolicy: model.PolicyUsers,
			Properties: map[string]any{"config": []any{map[string]any{"panelID": 1}}}},
		3: {ID: 3, PHID: "PHID-DSHP-untitled", Type: model.PanelTypeText,
			ViewPolicy: model.PolicyPublic, EditPolicy: model.PolicyNoOne},
	}
}

func testOptions(logs *bytes.Buffer) Options {
	panels := testPanels()
	return Options{
		Panels:   panels,
		Renderer: engine.New(engine.Options{Lookup: panels, Policy: policy.Checker{}}),
		Logger:   slog.New(slog.NewTextHandler(logs, nil)),
	}
}

func doRequest(t *testing.T, h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
