package schema

// EntitiesSchema validates a JSON object mapping entity names to entity
// definitions. Each definition needs description, vertex, properties and
// groupBy.
type EntitiesSchema struct {
	text   string
	parsed value
	ok     bool
}

func NewEntitiesSchema(entities string) *EntitiesSchema {
	return &EntitiesSchema{text: entities}
}

// Validate checks the entities text. Empty text is valid.
func (s *EntitiesSchema) Validate() *Notifications {
	n, v, ok := entityMap.validateText(s.text)
	s.parsed, s.ok = v, ok
	return n
}

// Entities returns the decoded entities once Validate has parsed them,
// otherwise the text it was built with.
func (s *EntitiesSchema) Entities() any {
	if !s.ok {
		return s.text
	}
	return s.parsed.decode()
}
