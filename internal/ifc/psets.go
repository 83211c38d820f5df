package ifc

// Attribute slots shared by all IfcElement subtypes:
// GlobalId, OwnerHistory, Name, Description, ObjectType, ..., Tag(7).
const (
	attrName        = 2
	attrDescription = 3
	attrObjectType  = 4
	attrTag         = 7
)

// Quantity is one base quantity with the display unit the original
// ifcopenshell-backed API reported (m, m², m³).
type Quantity struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Name returns the element Name attribute, nil when unset. The pointer
// mirrors the wire contract, where name is nullable.
func (m *Model) Name(e *Entity) *string {
	if s, ok := e.Str(attrName); ok {
		return &s
	}
	return nil
}

// Properties returns the direct attributes exposed alongside psets:
// ObjectType, Tag, and Description. Unset slots are carried as nulls.
func (m *Model) Properties(e *Entity) map[string]any {
	props := map[string]any{
		"ObjectType":  nil,
		"Tag":         nil,
		"Description": nil,
	}
	if s, ok := e.Str(attrObjectType); ok {
		props["ObjectType"] = s
	}
	if s, ok := e.Str(attrTag); ok {
		props["Tag"] = s
	}
	if s, ok := e.Str(attrDescription); ok {
		props["Description"] = s
	}
	return props
}

// PropertySets collects the IFCPROPERTYSET definitions attached to e via
// IFCRELDEFINESBYPROPERTIES, flattened to setName -> propertyName -> scalar.
func (m *Model) PropertySets(e *Entity) map[string]map[string]any {
	psets := make(map[string]map[string]any)
	for _, def := range m.definitions(e) {
		if def.Type != "IFCPROPERTYSET" {
			continue
		}
		setName, ok := def.Str(attrName)
		if !ok || setName == "" {
			continue
		}
		props, ok := def.ListAt(4)
		if !ok {
			continue
		}
		values := make(map[string]any)
		for _, v := range props {
			ref, ok := v.(Ref)
			if !ok {
				continue
			}
			prop, ok := m.Entity(int(ref))
			if !ok || prop.Type != "IFCPROPERTYSINGLEVALUE" {
				continue
			}
			name, ok := prop.Str(0)
			if !ok {
				continue
			}
			if len(prop.Attrs) > 2 {
				values[name] = scalar(prop.Attrs[2])
			}
		}
		if len(values) > 0 {
			psets[setName] = values
		}
	}
	return psets
}

// Quantities collects IFCELEMENTQUANTITY length/area/volume entries for e.
func (m *Model) Quantities(e *Entity) map[string]Quantity {
	quantities := make(map[string]Quantity)
	for _, def := range m.definitions(e) {
		if def.Type != "IFCELEMENTQUANTITY" {
			continue
		}
		items, ok := def.ListAt(5)
		if !ok {
			continue
		}
		for _, v := range items {
			ref, ok := v.(Ref)
			if !ok {
				continue
			}
			q, ok := m.Entity(int(ref))
			if !ok {
				continue
			}
			var unit string
			switch q.Type {
			case "IFCQUANTITYLENGTH":
				unit = "m"
			case "IFCQUANTITYAREA":
				unit = "m²"
			case "IFCQUANTITYVOLUME":
				unit = "m³"
			default:
				continue
			}
			name, ok := q.Str(0)
			if !ok {
				continue
			}
			if value, ok := q.FloatAt(3); ok {
				quantities[name] = Quantity{Value: value, Unit: unit}
			}
		}
	}
	return quantities
}

// definitions returns the property definitions related to e, resolving the
// RelatingPropertyDefinition side of each IFCRELDEFINESBYPROPERTIES.
func (m *Model) definitions(e *Entity) []*Entity {
	var defs []*Entity
	for _, rel := range m.defining[e.ID] {
		ref, ok := rel.RefAt(5)
		if !ok {
			continue
		}
		if def, ok := m.Entity(int(ref)); ok {
			defs = append(defs, def)
		}
	}
	return defs
}

// scalar unwraps typed values and enumerations down to JSON-friendly types.
func scalar(v any) any {
	switch t := v.(type) {
	case Typed:
		return scalar(t.Value)
	case Enum:
		switch t {
		case "T":
			return true
		case "F":
			return false
		}
		return string(t)
	case Ref:
		return nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = scalar(item)
		}
		return out
	default:
		return v
	}
}
