package synthesis

import (
	"fmt"

	"github.com/helixdata-ai/query-engine/internal/domain"
	"github.com/helixdata-ai/query-engine/internal/observability"
	"github.com/helixdata-ai/query-engine/internal/schema"
)

// Validator runs best-effort sanity checks over an extracted query spec.
// Checks are advisory only: they produce warnings, never errors, and never
// block execution. The model output is untrusted text, so anything the
// validator misses still fails safely at the store.
type Validator struct {
	logger *observability.Logger
}

// NewValidator creates a validator.
func NewValidator(logger *observability.Logger) *Validator {
	return &Validator{logger: logger}
}

// Validate inspects the spec against the schema and returns warning strings.
func (v *Validator) Validate(spec *domain.QuerySpec, sc *schema.Context) []string {
	var warnings []string

	joined := make(map[string]bool, len(spec.Joins))
	for _, j := range spec.Joins {
		joined[j.Collection] = true
	}

	for i, stage := range spec.Aggregation {
		if group, ok := stage["$group"].(map[string]any); ok {
			for _, field := range collectSizeArgs(group) {
				if sc != nil && sc.RecognizesArrayField(field) {
					continue
				}
				warnings = append(warnings, fmt.Sprintf(
					"stage %d: $size references %q which is not a recognizable array field in the primary collection schema", i, field))
			}
		}

		if lookup, ok := stage["$lookup"].(map[string]any); ok {
			from, _ := lookup["from"].(string)
			if from != "" && !joined[from] {
				warnings = append(warnings, fmt.Sprintf(
					"stage %d: $lookup references collection %q which is not declared in joins", i, from))
			}
		}
	}

	// An explicit empty sort object would be rejected by the store; the
	// executor omits it, but surface that the model emitted one.
	if spec.Mode() == domain.OpFind && spec.Sort != nil && len(spec.Sort) == 0 {
		warnings = append(warnings, "empty sort object in find query; sort clause will be omitted")
	}

	for _, w := range warnings {
		v.logger.Warn().Str("primary_collection", spec.PrimaryCollection).Msg(w)
	}
	observability.ObserveValidatorWarnings(len(warnings))

	return warnings
}

// collectSizeArgs walks an accumulator document and gathers every value a
// $size operator is applied to, however deeply nested.
func collectSizeArgs(doc map[string]any) []string {
	var args []string
	var walk func(v any)
	walk = func(v any) {
		switch val := v.(type) {
		case map[string]any:
			for k, inner := range val {
				if k == "$size" {
					if s, ok := inner.(string); ok {
						args = append(args, s)
					}
					continue
				}
				walk(inner)
			}
		case []any:
			for _, item := range val {
				walk(item)
			}
		}
	}
	walk(doc)
	return args
}
