package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Operation identifies the native query operation issued to the document store.
type Operation string

const (
	OpFind      Operation = "find"
	OpAggregate Operation = "aggregate"
)

// Supported join description types.
const (
	JoinTypeLookup = "lookup"
	JoinTypeMatch  = "match"
)

// SortField is a single sort key with its direction. Sort order is significant
// to the store, so sorts are carried as an ordered slice rather than a map.
type SortField struct {
	Key   string
	Value any
}

// SortFields is an ordered sort document.
type SortFields []SortField

// MarshalJSON renders the sort document as a JSON object preserving key order.
func (s SortFields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into key-order-preserving sort fields
// using a token walk, since a plain map decode would lose the order. A JSON
// null yields nil; an explicit empty object yields an empty non-nil slice, so
// the two stay distinguishable after a round trip.
func (s *SortFields) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*s = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("sort must be an object, got %v", tok)
	}

	fields := SortFields{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected sort key token %v", keyTok)
		}

		var val any
		if err := dec.Decode(&val); err != nil {
			return err
		}
		fields = append(fields, SortField{Key: key, Value: val})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = fields
	return nil
}

// JoinSpec describes a relationship between the primary collection and another
// collection. It is descriptive only: the actual join mechanics live inside
// the aggregation pipeline stages.
type JoinSpec struct {
	Collection   string `json:"collection"`
	Type         string `json:"type"`
	LocalField   string `json:"local_field"`
	ForeignField string `json:"foreign_field"`
	Alias        string `json:"as"`
}

// QuerySpec is the structured representation of a single query extracted from
// model output. It is created fresh per request and never mutated after
// validation; the aggregate execution path appends its terminal limit stage to
// an execution-time copy only.
type QuerySpec struct {
	PrimaryCollection string           `json:"primary_collection"`
	Filter            map[string]any   `json:"filter"`
	Projection        map[string]any   `json:"projection"`
	Sort              SortFields       `json:"sort"`
	Limit             int64            `json:"limit"`
	Aggregation       []map[string]any `json:"aggregation"`
	Joins             []JoinSpec       `json:"joins"`
}

// Mode returns the execution mode implied by the aggregation pipeline. A
// non-empty pipeline always executes as an aggregation; an empty one always
// executes as a find. The two are mutually exclusive.
func (s *QuerySpec) Mode() Operation {
	if len(s.Aggregation) > 0 {
		return OpAggregate
	}
	return OpFind
}

// ExecutionPlan is the tagged execution variant built from a validated spec.
// Representing the two strategies as distinct types keeps the untyped,
// model-generated mapping from leaking past extraction.
type ExecutionPlan interface {
	Operation() Operation
}

// FindPlan executes a single-collection find.
type FindPlan struct {
	Filter     map[string]any
	Projection map[string]any
	Sort       SortFields
	Limit      int64
}

// Operation implements ExecutionPlan.
func (p *FindPlan) Operation() Operation { return OpFind }

// AggregatePlan executes an aggregation pipeline.
type AggregatePlan struct {
	Pipeline []map[string]any
	Limit    int64
}

// Operation implements ExecutionPlan.
func (p *AggregatePlan) Operation() Operation { return OpAggregate }

// Plan builds the tagged execution variant for the spec.
func (s *QuerySpec) Plan() ExecutionPlan {
	if s.Mode() == OpAggregate {
		return &AggregatePlan{Pipeline: s.Aggregation, Limit: s.Limit}
	}
	return &FindPlan{
		Filter:     s.Filter,
		Projection: s.Projection,
		Sort:       s.Sort,
		Limit:      s.Limit,
	}
}

// NativeParams carries the store-native parameters for one operation. For
// finds, a nil Sort means the sort clause is omitted entirely; the store
// rejects empty sort documents, so an empty-but-present sort is never sent.
type NativeParams struct {
	Filter     map[string]any
	Projection map[string]any
	Sort       SortFields
	Limit      int64
	Pipeline   []map[string]any
}

// Request is the caller-facing input to the pipeline.
type Request struct {
	UserRequest        string `json:"user_request"`
	SchemaText         string `json:"schema_text"`
	Limit              int64  `json:"limit"`
	IncludeAggregation bool   `json:"include_aggregation"`
	JoinStrategy       string `json:"join_strategy"`
}

// Defaults applied by the pipeline when the caller leaves fields zero.
const (
	DefaultLimit        int64 = 100
	DefaultJoinStrategy       = JoinTypeLookup
)

// Normalize fills in defaults for unset optional fields.
func (r *Request) Normalize() {
	if r.Limit <= 0 {
		r.Limit = DefaultLimit
	}
	if r.JoinStrategy == "" {
		r.JoinStrategy = DefaultJoinStrategy
	}
}

// QueryInfo echoes the executed query back to the caller.
type QueryInfo struct {
	PrimaryCollection string     `json:"primary_collection"`
	QueryType         string     `json:"query_type"`
	Limit             int64      `json:"limit"`
	Joins             []JoinSpec `json:"joins"`
	GeneratedQuery    *QuerySpec `json:"generated_query"`
}

// ResultSet holds the normalized result rows.
type ResultSet struct {
	TotalCount int              `json:"total_count"`
	Data       []map[string]any `json:"data"`
}

// Summary holds execution metadata.
type Summary struct {
	ExecutionTime       string   `json:"execution_time"`
	ResultCount         int      `json:"result_count"`
	CollectionsInvolved []string `json:"collections_involved"`
}

// FormattedResponse is the normalized result envelope returned to the caller.
type FormattedResponse struct {
	QueryInfo QueryInfo `json:"query_info"`
	Results   ResultSet `json:"results"`
	Summary   Summary   `json:"summary"`
}
