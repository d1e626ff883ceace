package synthesis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt_Deterministic(t *testing.T) {
	a := BuildPrompt("show critical apps", "schema text", 100, false, "lookup")
	b := BuildPrompt("show critical apps", "schema text", 100, false, "lookup")
	assert.Equal(t, a, b)
}

func TestBuildPrompt_EmbedsInputsVerbatim(t *testing.T) {
	schema := "collection: application_snapshot\n  application.criticality: string"
	request := "show me all high criticality applications"

	prompt := BuildPrompt(request, schema, 50, false, "lookup")

	assert.Contains(t, prompt, schema)
	assert.Contains(t, prompt, "USER REQUEST: "+request)
	assert.Contains(t, prompt, "JOIN STRATEGY: lookup")
	assert.Contains(t, prompt, "Limit results to 50 documents")
}

func TestBuildPrompt_ContainsOutputContract(t *testing.T) {
	prompt := BuildPrompt("anything", "schema", 100, false, "lookup")

	for _, key := range []string{`"primary_collection"`, `"filter"`, `"projection"`, `"sort"`, `"limit"`, `"aggregation"`, `"joins"`} {
		assert.Contains(t, prompt, key)
	}
	assert.Contains(t, prompt, "Include the joins array even if empty")
	assert.Contains(t, prompt, `{"$sum": 1}`)
	assert.Contains(t, prompt, "Generate only the JSON query object")
}

func TestBuildPrompt_AggregationNote(t *testing.T) {
	without := BuildPrompt("anything", "schema", 100, false, "lookup")
	with := BuildPrompt("anything", "schema", 100, true, "lookup")

	note := "Include an aggregation pipeline when appropriate"
	assert.NotContains(t, without, note)
	assert.Contains(t, with, note)
	assert.True(t, strings.HasPrefix(with, without), "aggregation note must only append")
}

func TestBuildPrompt_LimitAppearsInAllExamples(t *testing.T) {
	prompt := BuildPrompt("anything", "schema", 77, false, "lookup")
	assert.GreaterOrEqual(t, strings.Count(prompt, "77"), 4)
}
