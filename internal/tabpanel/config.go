package tabpanel

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/John-Robertt/dashpanel/internal/model"
)

// ConfigProperty is the panel property holding the tab list.
const ConfigProperty = "config"

// RawConfig is the stored "config" property. Current panels store a list;
// panels written by older versions store the same list as JSON text.
type RawConfig struct {
	Encoding   Encoding
	Structured any    // EncodingStructured: []any or an index-keyed map
	Legacy     string // EncodingLegacyJSON
}

type Encoding int

const (
	EncodingMissing Encoding = iota
	EncodingStructured
	EncodingLegacyJSON
)

// RawConfigFrom wraps a property value. Values that are neither
// structured nor text are reported as missing.
func RawConfigFrom(v any) RawConfig {
	switch x := v.(type) {
	case nil:
		return RawConfig{Encoding: EncodingMissing}
	case string:
		return RawConfig{Encoding: EncodingLegacyJSON, Legacy: x}
	case []byte:
		return RawConfig{Encoding: EncodingLegacyJSON, Legacy: string(x)}
	case []any, map[string]any, []model.TabSpec:
		return RawConfig{Encoding: EncodingStructured, Structured: x}
	default:
		return RawConfig{Encoding: EncodingMissing}
	}
}

// Decode returns the tab list. It never fails: anything that cannot be
// decoded yields an empty list.
func (rc RawConfig) Decode() []model.TabSpec {
	switch rc.Encoding {
	case EncodingStructured:
		return decodeStructured(rc.Structured)
	case EncodingLegacyJSON:
		var v any
		if err := json.Unmarshal([]byte(rc.Legacy), &v); err != nil {
			return []model.TabSpec{}
		}
		return decodeStructured(v)
	default:
		return []model.TabSpec{}
	}
}

// ParseConfig reads a panel's tab list.
func ParseConfig(p *model.Panel) []model.TabSpec {
	return RawConfigFrom(p.Property(ConfigProperty)).Decode()
}

func decodeStructured(v any) []model.TabSpec {
	switch x := v.(type) {
	case []model.TabSpec:
		return x
	case []any:
		out := make([]model.TabSpec, 0, len(x))
		for _, item := range x {
			out = append(out, decodeSpec(item))
		}
		return out
	case map[string]any:
		return decodeIndexed(x)
	default:
		return []model.TabSpec{}
	}
}

// decodeIndexed accepts {"0": {...}, "1": {...}}, the shape a list takes
// once it has been serialized with explicit keys. Any non-integer key
// makes the whole value invalid.
func decodeIndexed(m map[string]any) []model.TabSpec {
	type entry struct {
		idx  int
		spec model.TabSpec
	}
	entries := make([]entry, 0, len(m))
	for k, item := range m {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 {
			return []model.TabSpec{}
		}
		entries = append(entries, entry{idx: idx, spec: decodeSpec(item)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].idx < entries[j].idx })
	out := make([]model.TabSpec, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.spec)
	}
	return out
}

// decodeSpec keeps a slot for malformed entries so tab indexes stay in
// step with the stored list.
func decodeSpec(v any) model.TabSpec {
	m, ok := v.(map[string]any)
	if !ok {
		return model.TabSpec{}
	}
	spec := model.TabSpec{PanelID: panelID(m["panelID"])}
	if name, ok := m["name"].(string); ok {
		spec.Name = name
	}
	return spec
}

func panelID(v any) int64 {
	switch x := v.(type) {
	case float64:
		if x > 0 && x == math.Trunc(x) && x < 1<<53 {
			return int64(x)
		}
	case int:
		if x > 0 {
			return int64(x)
		}
	case int64:
		if x > 0 {
			return x
		}
	case json.Number:
		if n, err := x.Int64(); err == nil && n > 0 {
			return n
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

// panelIDs returns the distinct non-zero panel ids in order of first use.
func panelIDs(specs []model.TabSpec) []int64 {
	seen := make(map[int64]bool, len(specs))
	out := make([]int64, 0, len(specs))
	for _, s := range specs {
		if s.PanelID == 0 || seen[s.PanelID] {
			continue
		}
		seen[s.PanelID] = true
		out = append(out, s.PanelID)
	}
	return out
}
