package schema

import (
	"fmt"
	"strings"
)

// elementMap describes a JSON object that maps element names to element
// definitions, and the fields every definition must carry.
type elementMap struct {
	label    string // "Entities", "Edges"
	property string // key of the map in the elements root
	itemKind string // "entity", "edge"
	contents string // what the map should hold, used in type errors
	required []string
	skipKeys []string
}

var entityMap = elementMap{
	label:    "Entities",
	property: "entities",
	itemKind: "entity",
	contents: "Entity objects",
	required: []string{"description", "vertex", "properties", "groupBy"},
}

var edgeMap = elementMap{
	label:    "Edges",
	property: "edges",
	itemKind: "edge",
	contents: "Edges objects",
	required: []string{"description", "source", "destination", "directed"},
	// groupBy sometimes sits next to the edges; it is not an edge.
	skipKeys: []string{"groupBy"},
}

// validateText runs the full check over raw text. Empty text has nothing to
// validate. parsed is only meaningful when ok is true.
func (m elementMap) validateText(text string) (n *Notifications, parsed value, ok bool) {
	n = NewNotifications()
	if len(text) == 0 {
		return n, value{}, false
	}
	v, valid := parse(text)
	if !valid {
		n.AddError(m.label + " is not valid JSON")
		return n, value{}, false
	}
	n.Concat(m.validateValue(v))
	return n, v, true
}

func (m elementMap) validateValue(v value) *Notifications {
	n := NewNotifications()
	if v.kind == kindMissing {
		n.AddError("Elements Schema does not contain property " + m.property)
		return n
	}
	if !v.isObject() {
		n.AddError(fmt.Sprintf("%s is type %s and not an object of %s", m.label, v.typeOf(), m.contents))
		return n
	}
	for _, item := range v.members() {
		if m.skip(item.key) {
			continue
		}
		missing := missingFields(item.val, m.required)
		if len(missing) > 0 {
			n.AddError(fmt.Sprintf("%s %s is missing [%s]", item.key, m.itemKind, strings.Join(missing, ", ")))
		}
	}
	return n
}

func (m elementMap) skip(key string) bool {
	for _, k := range m.skipKeys {
		if k == key {
			return true
		}
	}
	return false
}

// missingFields returns the quoted names of required fields absent from v,
// in the order they are listed.
func missingFields(v value, required []string) []string {
	present := make(map[string]bool)
	for _, m := range v.members() {
		present[m.key] = true
	}
	var missing []string
	for _, field := range required {
		if !present[field] {
			missing = append(missing, `"`+field+`"`)
		}
	}
	return missing
}
