package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is the JSON shape a reply must have. Declare it once as a
// package variable; it is compiled on first use.
type Schema struct {
	// Name is kebab-case. OpenAI sends it with the request.
	Name        string
	Description string
	Definition  map[string]any

	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

// Validate checks that raw is JSON matching the schema.
func (s *Schema) Validate(raw json.RawMessage) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("reply is not JSON: %w", err)
	}
	s.once.Do(s.compile)
	if s.err != nil {
		return s.err
	}
	if err := s.compiled.Validate(doc); err != nil {
		return fmt.Errorf("reply does not match %s: %w", s.Name, err)
	}
	return nil
}

func (s *Schema) compile() {
	// The compiler wants decoded JSON values, not Go maps with typed slices.
	raw, err := json.Marshal(s.Definition)
	if err != nil {
		s.err = fmt.Errorf("schema %s: %w", s.Name, err)
		return
	}
	def, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		s.err = fmt.Errorf("schema %s: %w", s.Name, err)
		return
	}

	url := "mathsprint://schemas/" + s.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, def); err != nil {
		s.err = fmt.Errorf("schema %s: %w", s.Name, err)
		return
	}
	s.compiled, s.err = c.Compile(url)
}
