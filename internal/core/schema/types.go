package schema

import "fmt"

// typeField checks one optional field of a type definition. check returns
// the error message for a bad value, or "" when the value is acceptable.
type typeField struct {
	name  string
	check func(typeName, field string, v value) string
}

var typeFields = []typeField{
	{name: "description", check: checkString},
	{name: "class", check: checkString},
	{name: "validateFunctions", check: checkFunctionList},
	{name: "aggregateFunction", check: checkFunction},
	{name: "serialiser", check: checkFunction},
}

// TypesSchema validates a JSON object mapping type names to type definitions.
type TypesSchema struct {
	text   string
	parsed value
	ok     bool
}

func NewTypesSchema(types string) *TypesSchema {
	return &TypesSchema{text: types}
}

// Validate checks the types text. Unlike entities and edges, empty text is
// an error.
func (s *TypesSchema) Validate() *Notifications {
	n := NewNotifications()
	if len(s.text) == 0 {
		n.AddError("Types Schema is empty")
		return n
	}
	v, ok := parse(s.text)
	if !ok {
		n.AddError("Types Schema is not valid JSON")
		return n
	}
	s.parsed, s.ok = v, true
	n.Concat(validateTypes(v))
	return n
}

// Types returns the decoded types once Validate has parsed them, otherwise
// the text it was built with.
func (s *TypesSchema) Types() any {
	if !s.ok {
		return s.text
	}
	return s.parsed.decode()
}

func validateTypes(v value) *Notifications {
	n := NewNotifications()
	if v.kind == kindMissing {
		n.AddError("Types Schema is undefined")
		return n
	}
	for _, t := range v.members() {
		for _, f := range typeFields {
			fv := t.val.get(f.name)
			if fv.kind == kindMissing {
				continue
			}
			if msg := f.check(t.key, f.name, fv); msg != "" {
				n.AddError(msg)
			}
		}
	}
	return n
}

func checkString(typeName, field string, v value) string {
	if v.kind == kindString {
		return ""
	}
	return fmt.Sprintf("%s in %s type is a %s, it needs to be a string", field, typeName, v.typeOf())
}

// checkFunction expects an object holding a string class.
func checkFunction(typeName, field string, v value) string {
	if !v.isObject() {
		return fmt.Sprintf("%s in %s type is a %s, it needs to be an object", field, typeName, v.typeOf())
	}
	class := v.get("class")
	if class.kind == kindMissing {
		return fmt.Sprintf("%s in %s type doesnt have class", field, typeName)
	}
	if class.kind != kindString {
		return fmt.Sprintf("class in %s in %s type is a %s, it needs to be a string", field, typeName, class.typeOf())
	}
	return ""
}

// checkFunctionList expects an array of function objects. Only the first bad
// element is reported.
func checkFunctionList(typeName, field string, v value) string {
	if v.kind != kindArray {
		return fmt.Sprintf("%s in %s type is a %s, it needs to be an Array of objects", field, typeName, v.typeOf())
	}
	for _, item := range v.members() {
		fn := item.val
		if !fn.isObject() {
			return fmt.Sprintf("%s in %s type contains a %s, it needs to be an Array of objects", field, typeName, fn.typeOf())
		}
		class := fn.get("class")
		if class.kind == kindMissing {
			return fmt.Sprintf("%s in %s type doesnt have class", field, typeName)
		}
		if class.kind != kindString {
			return fmt.Sprintf("%s item %s in %s type has a class that is a %s, it needs to be a string", field, fn.compact(), typeName, class.typeOf())
		}
	}
	return ""
}
