package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/messages.schema.json
var schemaFS embed.FS

const schemaURL = "https://chronicles.ai/schemas/messages.schema.json"

var (
	schemaOnce sync.Once
	schemaErr  error
	schemas    map[string]*jsonschema.Schema
)

func loadSchemas() {
	raw, err := schemaFS.ReadFile("schemas/messages.schema.json")
	if err != nil {
		schemaErr = err
		return
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, bytes.NewReader(raw)); err != nil {
		schemaErr = fmt.Errorf("messages.schema.json: %w", err)
		return
	}
	schemas = map[string]*jsonschema.Schema{}
	for msgType, def := range map[string]string{TypeHello: "hello", TypeSubmit: "submit"} {
		s, err := c.Compile(schemaURL + "#/$defs/" + def)
		if err != nil {
			schemaErr = fmt.Errorf("schema %s: %w", def, err)
			return
		}
		schemas[msgType] = s
	}
}

// ValidateClientMessage checks raw against the schema for msgType. Only
// client-sent types have schemas.
func ValidateClientMessage(msgType string, raw []byte) error {
	schemaOnce.Do(loadSchemas)
	if schemaErr != nil {
		return schemaErr
	}
	s, ok := schemas[msgType]
	if !ok {
		return fmt.Errorf("no schema for message type %q", msgType)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return s.Validate(doc)
}
