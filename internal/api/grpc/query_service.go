// Package grpc provides gRPC/Connect service implementations for the Query Engine.
package grpc

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/helixdata-ai/query-engine/internal/domain"
	"github.com/helixdata-ai/query-engine/internal/observability"
	"github.com/helixdata-ai/query-engine/internal/pipeline"
)

// QueryService implements the gRPC/Connect query service.
type QueryService struct {
	logger *observability.Logger
	engine *pipeline.Engine
}

// NewQueryService creates a new query service.
func NewQueryService(logger *observability.Logger, engine *pipeline.Engine) *QueryService {
	return &QueryService{
		logger: logger,
		engine: engine,
	}
}

// QueryRequest represents the gRPC request message.
type QueryRequest struct {
	UserRequest        string `json:"user_request"`
	SchemaText         string `json:"schema_text"`
	Limit              int64  `json:"limit,omitempty"`
	IncludeAggregation bool   `json:"include_aggregation,omitempty"`
	JoinStrategy       string `json:"join_strategy,omitempty"`
}

// QueryResponse represents the gRPC response message.
type QueryResponse struct {
	QueryInfo *QueryInfo `json:"query_info"`
	Results   *ResultSet `json:"results"`
	Summary   *Summary   `json:"summary"`
}

// QueryInfo echoes the executed query in gRPC.
type QueryInfo struct {
	PrimaryCollection string         `json:"primary_collection"`
	QueryType         string         `json:"query_type"`
	Limit             int64          `json:"limit"`
	Joins             []*Join        `json:"joins"`
	GeneratedQuery    map[string]any `json:"generated_query,omitempty"`
}

// Join represents a join description in gRPC.
type Join struct {
	Collection   string `json:"collection"`
	Type         string `json:"type"`
	LocalField   string `json:"local_field"`
	ForeignField string `json:"foreign_field"`
	Alias        string `json:"as"`
}

// ResultSet holds result rows in gRPC.
type ResultSet struct {
	TotalCount int              `json:"total_count"`
	Data       []map[string]any `json:"data"`
}

// Summary holds execution metadata in gRPC.
type Summary struct {
	ExecutionTime       string   `json:"execution_time"`
	ResultCount         int      `json:"result_count"`
	CollectionsInvolved []string `json:"collections_involved"`
}

// Query handles gRPC/Connect query requests.
func (s *QueryService) Query(ctx context.Context, req *connect.Request[QueryRequest]) (*connect.Response[QueryResponse], error) {
	msg := req.Msg

	// Validate required fields
	if msg.UserRequest == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("user_request is required"))
	}
	if msg.SchemaText == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("schema_text is required"))
	}

	internalReq := domain.Request{
		UserRequest:        msg.UserRequest,
		SchemaText:         msg.SchemaText,
		Limit:              msg.Limit,
		IncludeAggregation: msg.IncludeAggregation,
		JoinStrategy:       msg.JoinStrategy,
	}

	resp, err := s.engine.Execute(ctx, internalReq)
	if err != nil {
		s.logger.Error().Err(err).Msg("Query failed")
		return nil, connect.NewError(codeFor(err), err)
	}

	return connect.NewResponse(s.toGRPCResponse(resp)), nil
}

// codeFor maps pipeline error kinds onto connect codes.
func codeFor(err error) connect.Code {
	switch domain.KindOf(err) {
	case domain.ErrorKindInputValidation:
		return connect.CodeInvalidArgument
	case domain.ErrorKindModelInvocation:
		return connect.CodeUnavailable
	case domain.ErrorKindNoQuerySpec, domain.ErrorKindMalformedQuerySpec, domain.ErrorKindMissingCollection:
		return connect.CodeFailedPrecondition
	default:
		return connect.CodeInternal
	}
}

func (s *QueryService) toGRPCResponse(resp *domain.FormattedResponse) *QueryResponse {
	joins := make([]*Join, 0, len(resp.QueryInfo.Joins))
	for _, j := range resp.QueryInfo.Joins {
		joins = append(joins, &Join{
			Collection:   j.Collection,
			Type:         j.Type,
			LocalField:   j.LocalField,
			ForeignField: j.ForeignField,
			Alias:        j.Alias,
		})
	}

	var generated map[string]any
	if q := resp.QueryInfo.GeneratedQuery; q != nil {
		generated = map[string]any{
			"primary_collection": q.PrimaryCollection,
			"filter":             q.Filter,
			"projection":         q.Projection,
			"limit":              q.Limit,
			"aggregation":        q.Aggregation,
		}
	}

	return &QueryResponse{
		QueryInfo: &QueryInfo{
			PrimaryCollection: resp.QueryInfo.PrimaryCollection,
			QueryType:         resp.QueryInfo.QueryType,
			Limit:             resp.QueryInfo.Limit,
			Joins:             joins,
			GeneratedQuery:    generated,
		},
		Results: &ResultSet{
			TotalCount: resp.Results.TotalCount,
			Data:       resp.Results.Data,
		},
		Summary: &Summary{
			ExecutionTime:       resp.Summary.ExecutionTime,
			ResultCount:         resp.Summary.ResultCount,
			CollectionsInvolved: resp.Summary.CollectionsInvolved,
		},
	}
}
