// Package policy decides which viewers may see or edit a panel.
package policy

import (
	"github.com/John-Robertt/dashpanel/internal/model"
)

// Checker evaluates the view and edit policies stored on panels. The zero
// value is ready to use.
type Checker struct{}

// CanView reports whether viewer may see p.
func (Checker) CanView(viewer model.Viewer, p *model.Panel) bool {
	if p == nil {
		return false
	}
	return allows(viewer, p.ViewPolicy)
}

// CanEdit reports whether viewer may change p. Editing also requires
// seeing the panel.
func (c Checker) CanEdit(viewer model.Viewer, p *model.Panel) bool {
	if !c.CanView(viewer, p) {
		return false
	}
	return allows(viewer, p.EditPolicy)
}

// FilterVisible drops the panels viewer cannot see.
func (c Checker) FilterVisible(viewer model.Viewer, panels map[int64]*model.Panel) map[int64]*model.Panel {
	out := make(map[int64]*model.Panel, len(panels))
	for id, p := range panels {
		if c.CanView(viewer, p) {
			out[id] = p
		}
	}
	return out
}

func allows(viewer model.Viewer, policy string) bool {
	switch policy {
	case model.PolicyNoOne:
		return false
	case model.PolicyPublic:
		return true
	}
	if viewer.IsAdmin {
		return true
	}
	switch policy {
	case model.PolicyUsers:
		return viewer.IsLoggedIn()
	case model.PolicyAdmin, "":
		return false
	default:
		return viewer.IsLoggedIn() && viewer.PHID == policy
	}
}
