package gapanalysis

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/deepresearch/core/errs"
)

// resultSchemaJSON describes the JSON shape GAP_ANALYSIS_PROMPT asks the
// model to emit. Validating against it before mapping into a Result turns
// a malformed-but-parseable response (wrong types, missing required
// fields) into a typed errs.KindModel error instead of silently falling
// back to zero-value fields deep inside fromRaw.
const resultSchemaJSON = `{
  "type": "object",
  "required": ["overall_coverage", "confidence"],
  "properties": {
    "overall_coverage": {"type": "number", "minimum": 0, "maximum": 1},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "gaps": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["aspect"],
        "properties": {
          "aspect": {"type": "string"},
          "importance": {"type": "string", "enum": ["high", "medium", "low"]},
          "reason": {"type": "string"}
        }
      }
    },
    "suggested_queries": {"type": "array", "items": {"type": "string"}},
    "covered_aspects": {"type": "array", "items": {"type": "string"}},
    "analysis": {"type": "string"}
  }
}`

var resultSchema *jsonschema.Schema

func init() {
	compiler := jsonschema.NewCompiler()
	var doc any
	if err := json.Unmarshal([]byte(resultSchemaJSON), &doc); err != nil {
		panic("gapanalysis: invalid embedded schema: " + err.Error())
	}
	if err := compiler.AddResource("gap_analysis_result.json", doc); err != nil {
		panic("gapanalysis: invalid embedded schema: " + err.Error())
	}
	s, err := compiler.Compile("gap_analysis_result.json")
	if err != nil {
		panic("gapanalysis: schema compile failed: " + err.Error())
	}
	resultSchema = s
}

// ValidateRaw checks a decoded JSON object against the gap-analysis result
// schema before ParseModelOutput maps it into a Result.
func ValidateRaw(data map[string]any) error {
	if err := resultSchema.Validate(data); err != nil {
		return errs.Wrap(errs.KindModel, err, "gap analysis output failed schema validation")
	}
	return nil
}

// ParseAndValidate is ParseModelOutput plus schema validation: it returns
// fallbackResult() (not an error) when no JSON object is recoverable at
// all, matching the model's own tolerant degradation, but returns an
// error when a JSON object was recovered yet doesn't match the documented
// shape.
func ParseAndValidate(content string) (Result, error) {
	data := extractJSONObject(content)
	if data == nil {
		return fallbackResult(), nil
	}
	if err := ValidateRaw(data); err != nil {
		return Result{}, err
	}
	return fromRaw(data), nil
}
