// Package synthesis turns a natural-language data request plus a schema
// description into a validated query specification by prompting a language
// model and extracting a query object from its output.
package synthesis

import (
	"fmt"
	"strings"
)

// BuildPrompt creates the query generation instruction sent to the language
// model. It is a pure function: the same inputs always produce the same text.
// The schema document and user request are embedded verbatim.
func BuildPrompt(userRequest, schemaText string, limit int64, includeAggregation bool, joinStrategy string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are a MongoDB query generator. Based on the user's request and the provided unified schema, generate a MongoDB query that may involve multiple collections.

UNIFIED SCHEMA DOCUMENT:
%s

USER REQUEST: %s

JOIN STRATEGY: %s

IMPORTANT CONSTRAINTS:
- Only use relationships that are explicitly defined in the schema
- If no relationships exist between collections, use single-collection queries only
- Always verify field names match exactly with the schema
- For aggregations, ensure all referenced fields exist in the schema

REQUIREMENTS:
- Generate a valid MongoDB query that matches the user's request
- Use the exact field names from the unified schema
- Limit results to %d documents
- Return the query as a single JSON object with the following structure:
{
  "primary_collection": "collection_name",
  "filter": {},
  "projection": {},
  "sort": {},
  "limit": %d,
  "aggregation": [],
  "joins": [
    {
      "collection": "collection_name",
      "type": "lookup",
      "local_field": "field_name",
      "foreign_field": "field_name",
      "as": "alias_name"
    }
  ]
}

EXAMPLES:

1. Simple single collection query (RECOMMENDED when no relationships exist):
{
  "primary_collection": "application_snapshot",
  "filter": {"application.criticality": "High"},
  "projection": {"_id": 0, "application.criticality": 1, "application.csiId": 1},
  "sort": {"application.csiId": 1},
  "limit": %d,
  "aggregation": [],
  "joins": []
}

2. Simple aggregation without joins:
{
  "primary_collection": "application_snapshot",
  "filter": {},
  "projection": {},
  "sort": {},
  "limit": %d,
  "aggregation": [
    {"$group": {"_id": "$application.criticality", "count": {"$sum": 1}}},
    {"$sort": {"count": -1}}
  ],
  "joins": []
}

3. Multi-collection join query (ONLY if relationships exist in schema):
{
  "primary_collection": "application_snapshot",
  "filter": {},
  "projection": {},
  "sort": {},
  "limit": %d,
  "aggregation": [
    {"$lookup": {"from": "employee_ratio", "localField": "application.csiId", "foreignField": "csiId", "as": "employee_data"}},
    {"$match": {"application.criticality": "High", "employee_data": {"$ne": []}}}
  ],
  "joins": [
    {
      "collection": "employee_ratio",
      "type": "lookup",
      "local_field": "application.csiId",
      "foreign_field": "csiId",
      "as": "employee_data"
    }
  ]
}

CRITICAL RULES:
- If the schema shows no explicit relationships between collections, DO NOT create joins
- Prefer single-collection queries when relationships are absent or uncertain
- Always use exact field names from the schema
- Use exact enumerated values from the schema with matching case (e.g. "High" not "HIGH")
- For aggregations, only reference fields that exist in the PRIMARY COLLECTION schema
- NEVER reference fields from other collections unless there is an explicit $lookup join
- Use proper MongoDB syntax for all operations
- When grouping by a nested field, reference its full path (e.g. "$application.criticality" not "$criticality")
- When counting documents, use {"$sum": 1}, never $size on fields that are not arrays
- Always specify the primary_collection
- Include the joins array even if empty

Generate only the JSON query object, no additional text or explanation.
`, schemaText, userRequest, joinStrategy, limit, limit, limit, limit, limit)

	if includeAggregation {
		b.WriteString("\nNOTE: Include an aggregation pipeline when appropriate for the user's request.\n")
	}

	return b.String()
}
