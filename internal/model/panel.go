package model

import (
	"fmt"
	"strings"
	"time"
)

// Panel types understood by the rendering engine.
const (
	PanelTypeTabs = "tabs"
	PanelTypeText = "text"
)

// Policy values. Anything else is treated as the PHID of the only user
// holding the capability.
const (
	PolicyPublic = "public"
	PolicyUsers  = "users"
	PolicyAdmin  = "admin"
	PolicyNoOne  = "no-one"
)

const PHIDPrefix = "PHID-DSHP-"

// Panel is a stored dashboard panel.
type Panel struct {
	ID         int64
	PHID       string
	Name       string
	Type       string
	ViewPolicy string
	EditPolicy string

	// Properties is the decoded JSON properties blob. Values keep whatever
	// shape they were stored with (a tab panel's "config" may be a list or
	// a legacy JSON string).
	Properties map[string]any

	DateCreated  time.Time
	DateModified time.Time
}

func (p *Panel) URI() string {
	return fmt.Sprintf("/W%d", p.ID)
}

// Property returns the named property, or nil.
func (p *Panel) Property(key string) any {
	if p == nil || p.Properties == nil {
		return nil
	}
	return p.Properties[key]
}

// TabSpec is one configured tab of a tab panel. PanelID is 0 when the tab
// does not reference a panel.
type TabSpec struct {
	PanelID int64  `json:"panelID,omitempty"`
	Name    string `json:"name,omitempty"`
}

// Viewer is the identity a page is rendered for. The zero value is the
// anonymous viewer.
type Viewer struct {
	PHID    string
	IsAdmin bool
}

func (v Viewer) IsLoggedIn() bool { return v.PHID != "" }

// ValidPHID reports whether s looks like a PHID: "PHID-" followed by a
// four letter type and a non-empty suffix.
func ValidPHID(s string) bool {
	rest, ok := strings.CutPrefix(s, "PHID-")
	if !ok {
		return false
	}
	typ, suffix, ok := strings.Cut(rest, "-")
	if !ok || len(typ) != 4 || suffix == "" {
		return false
	}
	for _, r := range typ {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	for _, r := range suffix {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// HeaderMode controls whether the engine draws a panel's title bar.
type HeaderMode int

const (
	HeaderNormal HeaderMode = iota
	HeaderNone
)

// RenderContext is the per-render state handed to panel renderers.
type RenderContext struct {
	Viewer     Viewer
	EditMode   bool
	HeaderMode HeaderMode

	// ParentPHIDs lists the enclosing panels, outermost first. Renderers
	// extend it with WithParent and never modify it in place.
	ParentPHIDs []string
}

// WithParent returns a copy of the parent chain with phid appended.
func (rc RenderContext) WithParent(phid string) []string {
	out := make([]string, 0, len(rc.ParentPHIDs)+1)
	out = append(out, rc.ParentPHIDs...)
	return append(out, phid)
}
