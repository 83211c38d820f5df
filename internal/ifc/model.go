// Package ifc decodes ISO 10303-21 (STEP) encoded IFC files far enough to
// answer element lookups: entity instances, GlobalId indexing, and the
// property-set relations hanging off building products. Geometry is ignored.
package ifc

import (
	"fmt"
	"sort"
	"strings"
)

// Entity is one decoded instance line (#id=TYPE(...);).
type Entity struct {
	ID    int
	Type  string
	Attrs []any
}

// Str returns attribute i as a string when present.
func (e *Entity) Str(i int) (string, bool) {
	if i < 0 || i >= len(e.Attrs) {
		return "", false
	}
	s, ok := e.Attrs[i].(string)
	return s, ok
}

// RefAt returns attribute i as an entity reference when present.
func (e *Entity) RefAt(i int) (Ref, bool) {
	if i < 0 || i >= len(e.Attrs) {
		return 0, false
	}
	r, ok := e.Attrs[i].(Ref)
	return r, ok
}

// ListAt returns attribute i as an aggregate when present.
func (e *Entity) ListAt(i int) ([]any, bool) {
	if i < 0 || i >= len(e.Attrs) {
		return nil, false
	}
	l, ok := e.Attrs[i].([]any)
	return l, ok
}

// FloatAt returns attribute i as a number when present.
func (e *Entity) FloatAt(i int) (float64, bool) {
	if i < 0 || i >= len(e.Attrs) {
		return 0, false
	}
	f, ok := e.Attrs[i].(float64)
	return f, ok
}

// GlobalID returns the IfcRoot GlobalId, or "" when the first attribute is
// not a valid 22-character identifier.
func (e *Entity) GlobalID() string {
	s, ok := e.Str(0)
	if !ok || !IsGUID(s) {
		return ""
	}
	return s
}

// Model is a decoded IFC file.
type Model struct {
	Schema string

	entities map[int]*Entity
	byGUID   map[string]*Entity
	products []*Entity
	// defining indexes IFCRELDEFINESBYPROPERTIES by related object id.
	defining map[int][]*Entity
}

// productTypes is the subset of IfcProduct leaf types this viewer cares
// about. Unknown product subtypes fall through the GlobalId heuristic in
// productFallback.
var productTypes = map[string]bool{
	"IFCWALL": true, "IFCWALLSTANDARDCASE": true, "IFCWALLELEMENTEDCASE": true,
	"IFCDOOR": true, "IFCWINDOW": true, "IFCSLAB": true, "IFCROOF": true,
	"IFCCOLUMN": true, "IFCBEAM": true, "IFCSTAIR": true, "IFCSTAIRFLIGHT": true,
	"IFCRAMP": true, "IFCRAMPFLIGHT": true, "IFCRAILING": true, "IFCPLATE": true,
	"IFCMEMBER": true, "IFCCOVERING": true, "IFCCURTAINWALL": true,
	"IFCFOOTING": true, "IFCPILE": true, "IFCSPACE": true,
	"IFCFURNISHINGELEMENT": true, "IFCBUILDINGELEMENTPROXY": true,
	"IFCFLOWTERMINAL": true, "IFCFLOWSEGMENT": true, "IFCFLOWFITTING": true,
	"IFCDISTRIBUTIONELEMENT": true, "IFCOPENINGELEMENT": true,
}

// Parse decodes an IFC file. It fails on malformed instance lines but
// tolerates header records it does not recognize.
func Parse(data []byte) (*Model, error) {
	m := &Model{
		entities: make(map[int]*Entity),
		byGUID:   make(map[string]*Entity),
		defining: make(map[int][]*Entity),
	}

	for _, record := range splitRecords(string(data)) {
		switch {
		case strings.HasPrefix(record, "#"):
			if err := m.parseInstance(record); err != nil {
				return nil, err
			}
		case strings.HasPrefix(strings.ToUpper(record), "FILE_SCHEMA"):
			m.parseSchema(record)
		}
	}

	if len(m.entities) == 0 {
		return nil, fmt.Errorf("no entity instances found (not an IFC file?)")
	}

	sort.Slice(m.products, func(i, j int) bool { return m.products[i].ID < m.products[j].ID })
	return m, nil
}

// splitRecords cuts the file into ';'-terminated records, honoring string
// literals and /* */ comments.
func splitRecords(src string) []string {
	var records []string
	var b strings.Builder
	inString := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inString {
			b.WriteByte(c)
			if c == '\'' {
				// Doubled apostrophe stays inside the literal.
				if i+1 < len(src) && src[i+1] == '\'' {
					b.WriteByte('\'')
					i++
				} else {
					inString = false
				}
			}
			continue
		}
		switch c {
		case '\'':
			inString = true
			b.WriteByte(c)
		case '/':
			if i+1 < len(src) && src[i+1] == '*' {
				if end := strings.Index(src[i+2:], "*/"); end >= 0 {
					i += 2 + end + 1
					continue
				}
				i = len(src)
				continue
			}
			b.WriteByte(c)
		case ';':
			rec := strings.TrimSpace(b.String())
			if rec != "" {
				records = append(records, rec)
			}
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	return records
}

func (m *Model) parseInstance(record string) error {
	s := newScanner(record)
	if err := s.expect('#'); err != nil {
		return err
	}
	id, err := s.scanInt()
	if err != nil {
		return fmt.Errorf("instance line %q: %w", truncate(record), err)
	}
	if err := s.expect('='); err != nil {
		return fmt.Errorf("#%d: %w", id, err)
	}
	typ := s.scanIdent()
	if typ == "" {
		return fmt.Errorf("#%d: missing entity type", id)
	}
	attrs, err := s.scanList()
	if err != nil {
		return fmt.Errorf("#%d=%s: %w", id, typ, err)
	}

	e := &Entity{ID: id, Type: typ, Attrs: attrs}
	m.entities[id] = e

	if guid := e.GlobalID(); guid != "" {
		m.byGUID[guid] = e
	}
	if productTypes[typ] || productFallback(e) {
		m.products = append(m.products, e)
	}
	if typ == "IFCRELDEFINESBYPROPERTIES" {
		if related, ok := e.ListAt(4); ok {
			for _, v := range related {
				if ref, ok := v.(Ref); ok {
					m.defining[int(ref)] = append(m.defining[int(ref)], e)
				}
			}
		}
	}
	return nil
}

// productFallback admits rooted entities outside the known product set:
// anything carrying a valid GlobalId that is not a relationship, a
// property definition, or the project itself. IfcProduct subtypes missing
// from productTypes (IFCCHIMNEY, IFCSHADINGDEVICE, ...) stay countable
// and selectable this way.
func productFallback(e *Entity) bool {
	if e.GlobalID() == "" {
		return false
	}
	if strings.HasPrefix(e.Type, "IFCREL") {
		return false
	}
	switch e.Type {
	case "IFCPROJECT", "IFCPROPERTYSET", "IFCELEMENTQUANTITY":
		return false
	}
	return true
}

func (m *Model) parseSchema(record string) {
	s := newScanner(record)
	s.scanIdent()
	lists, err := s.scanList()
	if err != nil || len(lists) == 0 {
		return
	}
	if inner, ok := lists[0].([]any); ok && len(inner) > 0 {
		if name, ok := inner[0].(string); ok {
			m.Schema = name
		}
	}
}

// Entity returns the instance with the given express id.
func (m *Model) Entity(id int) (*Entity, bool) {
	e, ok := m.entities[id]
	return e, ok
}

// ByGUID returns the root entity carrying the given GlobalId.
func (m *Model) ByGUID(guid string) (*Entity, bool) {
	e, ok := m.byGUID[guid]
	return e, ok
}

// Products returns the building elements of the model in express-id order.
func (m *Model) Products() []*Entity {
	return m.products
}

// TotalElements is the product count reported to clients on upload.
func (m *Model) TotalElements() int {
	return len(m.products)
}

// ProjectName returns the Name of the IFCPROJECT entity, or "Unknown" when
// the file carries none.
func (m *Model) ProjectName() string {
	for _, e := range m.entities {
		if e.Type == "IFCPROJECT" {
			if name, ok := e.Str(2); ok && name != "" {
				return name
			}
			break
		}
	}
	return "Unknown"
}

// guidAlphabet is the IFC base-64 alphabet used by compressed GlobalIds.
const guidAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_$"

// IsGUID reports whether s looks like a compressed IFC GlobalId: 22
// characters of the IFC base-64 alphabet, leading character below 4.
func IsGUID(s string) bool {
	if len(s) != 22 {
		return false
	}
	if s[0] < '0' || s[0] > '3' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(guidAlphabet, rune(s[i])) {
			return false
		}
	}
	return true
}

func truncate(s string) string {
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
