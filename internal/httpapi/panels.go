package httpapi

import (
	"context"
	"fmt"
	"html/template"
	"net/http"

	"github.com/John-Robertt/dashpanel/internal/engine"
	"github.com/John-Robertt/dashpanel/internal/model"
)

type panelRequest struct {
	Viewer   model.Viewer
	Panel    *model.Panel
	EditMode bool
}

// loadPanel resolves viewer, panel and edit mode for a panel route.
func (s *server) loadPanel(ctx context.Context, r *http.Request) (panelRequest, error) {
	viewer, err := viewerFromRequest(r)
	if err != nil {
		return panelRequest{}, err
	}
	id, err := panelIDFromRequest(r)
	if err != nil {
		return panelRequest{}, err
	}
	edit, err := queryBool(r, "edit")
	if err != nil {
		return panelRequest{}, err
	}
	panel, err := s.opt.Panels.ByID(ctx, viewer, id)
	if err != nil {
		return panelRequest{}, err
	}
	if edit && !s.opt.Policy.CanEdit(viewer, panel) {
		return panelRequest{}, apiError(http.StatusForbidden, model.AppError{
			Code:    "PANEL_EDIT_FORBIDDEN",
			Message: fmt.Sprintf("you do not have permission to edit panel %d", id),
			Stage:   "validate_request",
		}, nil)
	}
	return panelRequest{Viewer: viewer, Panel: panel, EditMode: edit}, nil
}

func (s *server) render(ctx context.Context, pr panelRequest, header model.HeaderMode) (template.HTML, error) {
	return s.opt.Renderer.RenderPanel(ctx, engine.Request{
		Viewer:     pr.Viewer,
		Panel:      pr.Panel,
		HeaderMode: header,
		EditMode:   pr.EditMode,
	})
}

// handlePage serves a panel as a standalone page.
func (s *server) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.opt.RenderTimeout)
	defer cancel()

	pr, err := s.loadPanel(ctx, r)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	download, err := queryBool(r, "download")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	body, err := s.render(ctx, pr, model.HeaderNormal)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	page, err := renderPanelPage(panelPage{
		Title:    pageTitle(pr.Panel),
		EditMode: pr.EditMode,
		Body:     body,
	})
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if download {
		setAttachmentHeaders(w, panelFileName(pr.Panel))
	}
	WriteHTML(w, http.StatusOK, page)
}

// handleFragment serves only the rendered panel, without header or page
// chrome, for embedding.
func (s *server) handleFragment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.opt.RenderTimeout)
	defer cancel()

	pr, err := s.loadPanel(ctx, r)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	body, err := s.render(ctx, pr, model.HeaderNone)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	WriteHTML(w, http.StatusOK, body)
}

func pageTitle(p *model.Panel) string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("Panel W%d", p.ID)
}
