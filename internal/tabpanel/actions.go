package tabpanel

import (
	"fmt"
	"html/template"
	"net/url"
	"strconv"

	"github.com/John-Robertt/dashpanel/internal/markup"
)

// Action is one entry of a dropdown menu. Workflow actions open the
// target in a dialog instead of navigating away.
type Action struct {
	Name     string
	Icon     string
	Href     string
	Workflow bool
	Disabled bool
	Divider  bool
}

func renderActionList(class string, actions []Action) template.HTML {
	items := make([]template.HTML, 0, len(actions))
	for _, a := range actions {
		items = append(items, renderAction(a))
	}
	return markup.Tag("ul", markup.Attrs{"class": markup.Classes("action-list", class)}, items)
}

func renderAction(a Action) template.HTML {
	if a.Divider {
		return markup.Tag("li", markup.Attrs{"class": "action-divider"})
	}
	icon := markup.Tag("span", markup.Attrs{"class": markup.Classes("action-icon", "fa", a.Icon)})
	if a.Disabled || a.Href == "" {
		return markup.Tag("li", markup.Attrs{"class": "action-item action-item-disabled"},
			markup.Tag("span", markup.Attrs{"class": "action-item-label"}, icon, a.Name))
	}
	attrs := markup.Attrs{"href": a.Href, "class": "action-item-label"}
	if a.Workflow {
		attrs["data-sigil"] = "workflow"
	}
	return markup.Tag("li", markup.Attrs{"class": "action-item"}, markup.Tag("a", attrs, icon, a.Name))
}

// Workflow endpoints for editing a tab panel. They are served by the
// dashboard editing application.
func tabsURI(panelID int64, op string, params url.Values) string {
	u := url.URL{Path: fmt.Sprintf("/dashboard/panel/tabs/%d/%s/", panelID, op)}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String()
}

func renameTabURI(panelID int64, idx int) string {
	return tabsURI(panelID, "rename", url.Values{"target": {strconv.Itoa(idx)}})
}

func removeTabURI(panelID int64, idx int) string {
	return tabsURI(panelID, "remove", url.Values{"target": {strconv.Itoa(idx)}})
}

// addTabURI appends after lastIdx; a negative lastIdx means the panel has
// no tabs yet.
func addTabURI(panelID int64, lastIdx int) string {
	if lastIdx < 0 {
		return tabsURI(panelID, "add", nil)
	}
	return tabsURI(panelID, "add", url.Values{"after": {strconv.Itoa(lastIdx)}})
}

func editPanelURI(panelID int64) string {
	if panelID == 0 {
		return ""
	}
	return fmt.Sprintf("/dashboard/panel/edit/%d/", panelID)
}
