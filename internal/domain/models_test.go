package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortFields_MarshalPreservesOrder(t *testing.T) {
	s := SortFields{{Key: "year", Value: -1}, {Key: "name", Value: 1}}

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `{"year":-1,"name":1}`, string(out))
}

func TestSortFields_RoundTrip(t *testing.T) {
	orig := SortFields{{Key: "year", Value: json.Number("-1")}, {Key: "name", Value: json.Number("1")}}

	out, err := json.Marshal(orig)
	require.NoError(t, err)

	var decoded SortFields
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, orig, decoded)
}

func TestSortFields_UnmarshalNullIsNil(t *testing.T) {
	s := SortFields{{Key: "stale", Value: 1}}
	require.NoError(t, json.Unmarshal([]byte("null"), &s))
	assert.Nil(t, s)
}

func TestSortFields_UnmarshalEmptyObjectIsNonNil(t *testing.T) {
	var s SortFields
	require.NoError(t, json.Unmarshal([]byte("{}"), &s))
	require.NotNil(t, s)
	assert.Len(t, s, 0)
}

func TestSortFields_UnmarshalRejectsNonObject(t *testing.T) {
	var s SortFields
	err := json.Unmarshal([]byte(`["year"]`), &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sort must be an object")
}

func TestFormattedResponse_SortedRoundTrip(t *testing.T) {
	resp := FormattedResponse{
		QueryInfo: QueryInfo{
			PrimaryCollection: "application_snapshot",
			QueryType:         "find",
			Limit:             25,
			Joins:             []JoinSpec{},
			GeneratedQuery: &QuerySpec{
				PrimaryCollection: "application_snapshot",
				Filter:            map[string]any{"application.criticality": "High"},
				Sort:              SortFields{{Key: "year", Value: json.Number("-1")}, {Key: "name", Value: json.Number("1")}},
				Limit:             25,
			},
		},
		Results: ResultSet{TotalCount: 1, Data: []map[string]any{{"name": "payments-api"}}},
		Summary: Summary{ExecutionTime: "0.120s", ResultCount: 1, CollectionsInvolved: []string{"application_snapshot"}},
	}

	out, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded FormattedResponse
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.NotNil(t, decoded.QueryInfo.GeneratedQuery)
	assert.Equal(t, resp.QueryInfo.GeneratedQuery.Sort, decoded.QueryInfo.GeneratedQuery.Sort)
}
