package catalogs

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schemas/sheets.schema.json
var schemaFS embed.FS

const schemaURL = "https://chronicles.ai/schemas/sheets.schema.json"

type validator struct {
	mu      sync.Mutex
	c       *jsonschema.Compiler
	schemas map[string]*jsonschema.Schema
}

func newValidator() (*validator, error) {
	raw, err := schemaFS.ReadFile("schemas/sheets.schema.json")
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("sheets.schema.json: %w", err)
	}
	return &validator{c: c, schemas: map[string]*jsonschema.Schema{}}, nil
}

func (v *validator) schema(name string) (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if s, ok := v.schemas[name]; ok {
		return s, nil
	}
	s, err := v.c.Compile(schemaURL + "#/$defs/" + name)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	v.schemas[name] = s
	return s, nil
}

// validate checks a YAML document against the schema definition for name.
// The document is round-tripped through JSON so the validator sees plain JSON
// types.
func (v *validator) validate(name string, raw []byte) error {
	s, err := v.schema(name)
	if err != nil {
		return err
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	js, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var plain any
	if err := json.Unmarshal(js, &plain); err != nil {
		return err
	}
	return s.Validate(plain)
}
