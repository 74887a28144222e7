// Package seed loads panel fixtures (YAML) into the panel store.
package seed

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/dashpanel/internal/engine"
	"github.com/John-Robertt/dashpanel/internal/model"
	"github.com/John-Robertt/dashpanel/internal/tabpanel"
)

const stage = "parse_fixture"

// Entry is one fixture panel. TextURL, when set, names a remote markdown
// source for a text panel, fetched by Load.
type Entry struct {
	Panel   *model.Panel
	TextURL string
}

type Fixture struct {
	Version int
	Entries []Entry
}

type ParseError struct {
	AppError model.AppError
	Cause    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

type rawFixture struct {
	Version int        `yaml:"version"`
	Panels  []rawPanel `yaml:"panels"`
}

type rawPanel struct {
	ID         int64  `yaml:"id"`
	PHID       string `yaml:"phid"`
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	ViewPolicy string `yaml:"view_policy"`
	EditPolicy string `yaml:"edit_policy"`

	// Config is a list of tabs, or the legacy JSON text of one.
	Config  any    `yaml:"config"`
	Text    string `yaml:"text"`
	TextURL string `yaml:"text_url"`
}

// ParseFixtureYAML parses and validates a panel fixture. source is only
// used in error reports.
func ParseFixtureYAML(source, content string) (*Fixture, error) {
	invalid := func(msg, snippet string, cause error) error {
		return &ParseError{
			AppError: model.AppError{
				Code:    "FIXTURE_VALIDATE_ERROR",
				Message: msg,
				Stage:   stage,
				URL:     source,
				Snippet: snippet,
			},
			Cause: cause,
		}
	}

	var rf rawFixture
	if err := yamlDecodeStrict(content, &rf); err != nil {
		return nil, &ParseError{
			AppError: model.AppError{
				Code:    "FIXTURE_PARSE_ERROR",
				Message: "failed to parse fixture YAML",
				Stage:   stage,
				URL:     source,
				Snippet: truncateSnippet(content, 200),
			},
			Cause: err,
		}
	}
	if rf.Version != 1 {
		return nil, invalid("fixture version must be 1", "", nil)
	}
	if len(rf.Panels) == 0 {
		return nil, invalid("fixture has no panels", "", nil)
	}

	ids := make(map[int64]struct{}, len(rf.Panels))
	phids := make(map[string]struct{}, len(rf.Panels))
	entries := make([]Entry, 0, len(rf.Panels))
	for i, rp := range rf.Panels {
		where := fmt.Sprintf("panels[%d]", i)
		if rp.ID <= 0 {
			return nil, invalid(where+": id must be a positive integer", "", nil)
		}
		if _, dup := ids[rp.ID]; dup {
			return nil, invalid(fmt.Sprintf("%s: duplicate panel id %d", where, rp.ID), "", nil)
		}
		ids[rp.ID] = struct{}{}

		phid := strings.TrimSpace(rp.PHID)
		if phid == "" {
			phid = DerivePHID(rp.ID)
		} else if !model.ValidPHID(phid) {
			return nil, invalid(where+": invalid phid", phid, nil)
		}
		if _, dup := phids[phid]; dup {
			return nil, invalid(where+": duplicate phid", phid, nil)
		}
		phids[phid] = struct{}{}

		typ := strings.TrimSpace(rp.Type)
		if typ == "" {
			return nil, invalid(where+": type must not be empty", "", nil)
		}

		viewPolicy, err := normalizePolicy(rp.ViewPolicy)
		if err != nil {
			return nil, invalid(where+": invalid view_policy", rp.ViewPolicy, err)
		}
		editPolicy, err := normalizePolicy(rp.EditPolicy)
		if err != nil {
			return nil, invalid(where+": invalid edit_policy", rp.EditPolicy, err)
		}

		props := map[string]any{}
		if rp.Config != nil {
			if typ != model.PanelTypeTabs {
				return nil, invalid(where+": config is only allowed on tabs panels", "", nil)
			}
			if err := validateConfig(rp.Config); err != nil {
				return nil, invalid(where+": invalid config", "", err)
			}
			props[tabpanel.ConfigProperty] = rp.Config
		}
		if rp.Text != "" || rp.TextURL != "" {
			if typ != model.PanelTypeText {
				return nil, invalid(where+": text is only allowed on text panels", "", nil)
			}
			if rp.Text != "" && rp.TextURL != "" {
				return nil, invalid(where+": text and text_url are mutually exclusive", "", nil)
			}
			if rp.Text != "" {
				props[engine.TextProperty] = rp.Text
			}
		}

		entries = append(entries, Entry{
			Panel: &model.Panel{
				ID:         rp.ID,
				PHID:       phid,
				Name:       strings.TrimSpace(rp.Name),
				Type:       typ,
				ViewPolicy: viewPolicy,
				EditPolicy: editPolicy,
				Properties: props,
			},
			TextURL: strings.TrimSpace(rp.TextURL),
		})
	}
	return &Fixture{Version: rf.Version, Entries: entries}, nil
}

// DerivePHID returns the PHID a fixture panel gets when none is given. It
// is stable for an id so reseeding does not churn references.
func DerivePHID(id int64) string {
	u := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("dashpanel/panel/%d", id)))
	return model.PHIDPrefix + strings.ReplaceAll(u.String(), "-", "")[:20]
}

func normalizePolicy(p string) (string, error) {
	p = strings.TrimSpace(p)
	switch p {
	case "":
		return model.PolicyUsers, nil
	case model.PolicyPublic, model.PolicyUsers, model.PolicyAdmin, model.PolicyNoOne:
		return p, nil
	}
	if model.ValidPHID(p) {
		return p, nil
	}
	return "", fmt.Errorf("unknown policy %q", p)
}

// validateConfig accepts a tab list or its legacy JSON text. Either must
// survive the JSON round trip the store performs.
func validateConfig(v any) error {
	switch c := v.(type) {
	case string:
		return nil
	case []any:
		if _, err := json.Marshal(c); err != nil {
			return err
		}
		return nil
	default:
		return fmt.Errorf("config must be a list or a JSON string, got %T", v)
	}
}

func yamlDecodeStrict(content string, out any) error {
	dec := yaml.NewDecoder(strings.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return err
	}

	var extra any
	if err := dec.Decode(&extra); err == nil {
		return errors.New("multiple YAML documents are not allowed")
	} else if !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func truncateSnippet(s string, max int) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	return s[:max]
}
