package synthesis

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/helixdata-ai/query-engine/internal/domain"
	"github.com/helixdata-ai/query-engine/internal/observability"
)

// Parsing tiers, in attempt order.
const (
	TierBareJSON   = "bare_json"
	TierFencedJSON = "fenced_json"
	TierBraceSlice = "brace_slice"
)

var fencedJSONRe = regexp.MustCompile("(?s)```json\\s*(.*?)```")

// Extractor pulls a single query specification out of raw model output.
// Model output is not guaranteed to be bare JSON, so extraction is a
// three-tier, first-success-wins strategy: whole text as JSON, then a fenced
// ```json block, then the first balanced top-level brace slice.
type Extractor struct {
	logger *observability.Logger
}

// NewExtractor creates an extractor.
func NewExtractor(logger *observability.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract parses raw model text into a QuerySpec.
func (e *Extractor) Extract(raw string) (*domain.QuerySpec, error) {
	trimmed := strings.TrimSpace(raw)

	for _, attempt := range []struct {
		tier string
		text string
	}{
		{TierBareJSON, trimmed},
		{TierFencedJSON, fencedBlock(trimmed)},
		{TierBraceSlice, braceSlice(trimmed)},
	} {
		if attempt.text == "" {
			continue
		}
		spec, err := parseSpec(attempt.text)
		if err != nil {
			continue
		}
		observability.ObserveExtractionTier(attempt.tier)
		e.logger.Debug().
			Str("tier", attempt.tier).
			Str("primary_collection", spec.PrimaryCollection).
			Msg("Query spec extracted")

		if spec.PrimaryCollection == "" {
			return nil, domain.MalformedQuerySpecError(
				fmt.Sprintf("query spec has no primary_collection: %s", excerpt(attempt.text)))
		}
		return spec, nil
	}

	return nil, domain.NoQuerySpecFoundError(
		fmt.Sprintf("no query spec found in model output: %s", excerpt(raw)))
}

// fencedBlock returns the interior of the first ```json fenced code block.
func fencedBlock(text string) string {
	m := fencedJSONRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// braceSlice returns the greedy substring from the first '{' to the last '}'.
func braceSlice(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// parseSpec decodes one candidate text into a QuerySpec. Sort key order is
// preserved by the SortFields decoder; an absent sort stays nil because the
// field's decoder is never invoked.
func parseSpec(text string) (*domain.QuerySpec, error) {
	var spec domain.QuerySpec
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	if err := dec.Decode(&spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

const excerptLen = 200

// excerpt truncates raw text for error messages so diagnostics stay readable.
func excerpt(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= excerptLen {
		return text
	}
	return text[:excerptLen] + "..."
}
