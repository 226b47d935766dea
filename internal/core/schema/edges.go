package schema

// EdgesSchema validates a JSON object mapping edge names to edge definitions.
// Each definition needs description, source, destination and directed;
// properties and groupBy are optional.
type EdgesSchema struct {
	text   string
	parsed value
	ok     bool
}

func NewEdgesSchema(edges string) *EdgesSchema {
	return &EdgesSchema{text: edges}
}

// Validate checks the edges text. Empty text is valid.
func (s *EdgesSchema) Validate() *Notifications {
	n, v, ok := edgeMap.validateText(s.text)
	s.parsed, s.ok = v, ok
	return n
}

// Edges returns the decoded edges once Validate has parsed them, otherwise
// the text it was built with.
func (s *EdgesSchema) Edges() any {
	if !s.ok {
		return s.text
	}
	return s.parsed.decode()
}
