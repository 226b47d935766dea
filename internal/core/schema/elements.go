package schema

import (
	"encoding/json"
	"strings"
)

var elementsRootProperties = []string{"entities", "edges", "visibilityProperty"}

// ElementsResult is the outcome of validating an elements schema. Entities
// and Edges hold the JSON of each part that was present and clean; they are
// nil otherwise.
type ElementsResult struct {
	*Notifications
	Entities json.RawMessage
	Edges    json.RawMessage
}

// ElementsSchema validates the elements root: an object with entities
// and/or edges and an optional visibilityProperty.
type ElementsSchema struct {
	text   string
	parsed value
	ok     bool
	result ElementsResult
}

func NewElementsSchema(elements string) *ElementsSchema {
	return &ElementsSchema{text: elements}
}

func (s *ElementsSchema) Validate() ElementsResult {
	res := ElementsResult{Notifications: NewNotifications()}
	s.result = res
	if len(s.text) == 0 {
		res.AddError("Elements Schema is empty")
		return res
	}
	v, ok := parse(s.text)
	if !ok {
		res.AddError("Elements Schema is not valid JSON")
		return res
	}
	s.parsed, s.ok = v, true

	validateElements(v, &res)
	validateRootProperties(v, res.Notifications)
	s.result = res
	return res
}

// Elements returns the decoded root once Validate has parsed it, otherwise
// the text it was built with.
func (s *ElementsSchema) Elements() any {
	if !s.ok {
		return s.text
	}
	return s.parsed.decode()
}

// Entities returns the entities accepted by the last Validate call on s.
func (s *ElementsSchema) Entities() json.RawMessage {
	return s.result.Entities
}

// Edges returns the edges accepted by the last Validate call on s.
func (s *ElementsSchema) Edges() json.RawMessage {
	return s.result.Edges
}

func validateElements(root value, res *ElementsResult) {
	edges := root.get("edges")
	if edges.kind != kindMissing {
		sub := NewEdgesSchema(string(edges.raw))
		n := sub.Validate()
		res.Concat(n)
		if n.IsEmpty() {
			res.Edges = json.RawMessage(sub.parsed.raw)
		}
	}

	entities := root.get("entities")
	if entities.kind != kindMissing {
		sub := NewEntitiesSchema(string(entities.raw))
		n := sub.Validate()
		res.Concat(n)
		if n.IsEmpty() {
			res.Entities = json.RawMessage(sub.parsed.raw)
		}
	}

	if edges.kind == kindMissing && entities.kind == kindMissing {
		res.AddError("Elements Schema must contain entities or edges")
	}
}

func validateRootProperties(root value, n *Notifications) {
	var invalid []string
	for _, m := range root.members() {
		if !isRootProperty(m.key) {
			invalid = append(invalid, m.key)
		}
	}
	if len(invalid) > 0 {
		n.AddError(`["` + strings.Join(invalid, `", "`) + `"] are invalid Elements schema root properties`)
	}
}

func isRootProperty(key string) bool {
	for _, p := range elementsRootProperties {
		if p == key {
			return true
		}
	}
	return false
}
