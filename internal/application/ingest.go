package application

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/bnema/aconomy-watch/internal/domain"
)

//go:embed schema/turn.schema.json
var turnSchemaJSON string

var turnSchema = mustCompileSchema(turnSchemaJSON)

// rootContext is how gojsonschema names the document root in error fields.
const rootContext = "(root)"

func mustCompileSchema(raw string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("compile turn schema: %v", err))
	}
	return schema
}

// Ingest turns one raw frame into a TurnRecord. Any failure is reported as a
// *domain.ParseError and nothing is kept from the frame.
func Ingest(raw []byte) (domain.TurnRecord, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return domain.TurnRecord{}, &domain.ParseError{Reason: "empty frame"}
	}

	result, err := turnSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return domain.TurnRecord{}, &domain.ParseError{Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}
	if !result.Valid() {
		return domain.TurnRecord{}, schemaParseError(result.Errors())
	}

	var wire wireTurn
	if err := json.Unmarshal(raw, &wire); err != nil {
		return domain.TurnRecord{}, &domain.ParseError{Reason: fmt.Sprintf("decode frame: %v", err)}
	}

	return fromWire(wire)
}

func schemaParseError(errs []gojsonschema.ResultError) *domain.ParseError {
	sort.SliceStable(errs, func(i, j int) bool {
		return resultField(errs[i]) < resultField(errs[j])
	})

	first := errs[0]
	return &domain.ParseError{Field: resultField(first), Reason: first.Description()}
}

func resultField(err gojsonschema.ResultError) string {
	field := err.Field()
	if field == rootContext {
		field = ""
	}

	if err.Type() == "required" {
		if property, ok := err.Details()["property"].(string); ok && !strings.HasSuffix(field, property) {
			if field == "" {
				return property
			}
			return field + "." + property
		}
	}

	return field
}
