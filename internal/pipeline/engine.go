package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/helixdata-ai/query-engine/internal/audit"
	"github.com/helixdata-ai/query-engine/internal/cache"
	"github.com/helixdata-ai/query-engine/internal/domain"
	"github.com/helixdata-ai/query-engine/internal/observability"
	"github.com/helixdata-ai/query-engine/internal/schema"
	"github.com/helixdata-ai/query-engine/internal/store"
	"github.com/helixdata-ai/query-engine/internal/synthesis"
)

// Outcome labels for pipeline run metrics and audit records.
const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

// Options configures optional engine collaborators. A nil cache disables
// result caching; a nil audit store disables auditing.
type Options struct {
	Cache    cache.Client
	CacheTTL time.Duration
	Audit    *audit.Store
}

// Engine orchestrates the full request-to-response pipeline: prompt building,
// model synthesis, spec extraction, advisory validation, store execution, and
// result formatting.
type Engine struct {
	synthesizer *synthesis.Synthesizer
	extractor   *synthesis.Extractor
	validator   *synthesis.Validator
	executor    *Executor
	formatter   *Formatter

	cache    cache.Client
	cacheTTL time.Duration
	auditor  *audit.Store
	logger   *observability.Logger
}

// NewEngine wires an engine from its collaborators. The generator may be nil;
// synthesis then fails with a model-invocation error rather than at
// construction time.
func NewEngine(gen domain.Generator, st *store.Store, logger *observability.Logger, opts Options) *Engine {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Engine{
		synthesizer: synthesis.NewSynthesizer(gen, logger),
		extractor:   synthesis.NewExtractor(logger),
		validator:   synthesis.NewValidator(logger),
		executor:    NewExecutor(st, logger),
		formatter:   NewFormatter(logger),
		cache:       opts.Cache,
		cacheTTL:    ttl,
		auditor:     opts.Audit,
		logger:      logger,
	}
}

// Execute runs one request through the pipeline and returns the typed
// response envelope, or a classified error.
func (e *Engine) Execute(ctx context.Context, req domain.Request) (*domain.FormattedResponse, error) {
	req.Normalize()
	started := time.Now()

	resp, spec, err := e.execute(ctx, req)

	e.recordAudit(ctx, req, spec, resp, err, time.Since(started))
	if err != nil {
		observability.ObservePipelineRun(outcomeError)
		e.logger.Error().Err(err).
			Str("error_kind", string(domain.KindOf(err))).
			Msg("Pipeline run failed")
		return nil, err
	}
	observability.ObservePipelineRun(outcomeSuccess)
	return resp, nil
}

func (e *Engine) execute(ctx context.Context, req domain.Request) (*domain.FormattedResponse, *domain.QuerySpec, error) {
	if strings.TrimSpace(req.UserRequest) == "" {
		return nil, nil, domain.InputValidationError("user request must not be empty")
	}
	if strings.TrimSpace(req.SchemaText) == "" {
		return nil, nil, domain.InputValidationError("schema text must not be empty")
	}

	sc := schema.NewContext(req.SchemaText)

	cacheKey := cache.ResultCacheKey(req.UserRequest, sc.Hash(), req.Limit, req.IncludeAggregation, req.JoinStrategy)
	if cached := e.cachedResponse(ctx, cacheKey); cached != nil {
		observability.ObserveCacheHit()
		e.logger.Debug().Str("cache_key", cacheKey).Msg("Returning cached query result")
		return cached, cached.QueryInfo.GeneratedQuery, nil
	}

	prompt := synthesis.BuildPrompt(req.UserRequest, sc.Text(), req.Limit, req.IncludeAggregation, req.JoinStrategy)

	raw, err := e.synthesizer.Synthesize(ctx, prompt)
	if err != nil {
		return nil, nil, err
	}

	spec, err := e.extractor.Extract(raw)
	if err != nil {
		return nil, nil, err
	}
	if spec.Limit <= 0 {
		spec.Limit = req.Limit
	}

	e.validator.Validate(spec, sc)

	start := time.Now()
	rows, err := e.executor.Execute(ctx, spec)
	if err != nil {
		return nil, spec, err
	}
	resp := e.formatter.Format(spec, rows, time.Since(start))

	e.storeResponse(ctx, cacheKey, resp)
	return resp, spec, nil
}

// Run executes a request and always returns a JSON document. Failures come
// back as a structured error payload; Run itself never returns an error.
func (e *Engine) Run(ctx context.Context, req domain.Request) string {
	resp, err := e.Execute(ctx, req)
	if err != nil {
		return e.errorPayload(req, err)
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return e.errorPayload(req, fmt.Errorf("failed to serialize response: %w", err))
	}
	return string(data)
}

func (e *Engine) errorPayload(req domain.Request, cause error) string {
	payload := map[string]any{
		"error":                 cause.Error(),
		"user_prompt":           req.UserRequest,
		"unified_schema_length": len(req.SchemaText),
		"timestamp":             time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return `{"error":"failed to serialize error payload"}`
	}
	return string(data)
}

func (e *Engine) cachedResponse(ctx context.Context, key string) *domain.FormattedResponse {
	if e.cache == nil {
		return nil
	}
	data, err := e.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			e.logger.Warn().Err(err).Msg("Result cache read failed")
		}
		return nil
	}
	var resp domain.FormattedResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		e.logger.Warn().Err(err).Msg("Discarding undecodable cached result")
		return nil
	}
	return &resp
}

func (e *Engine) storeResponse(ctx context.Context, key string, resp *domain.FormattedResponse) {
	if e.cache == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, key, data, e.cacheTTL); err != nil {
		e.logger.Warn().Err(err).Msg("Result cache write failed")
	}
}

func (e *Engine) recordAudit(ctx context.Context, req domain.Request, spec *domain.QuerySpec, resp *domain.FormattedResponse, runErr error, elapsed time.Duration) {
	if e.auditor == nil {
		return
	}

	entry := audit.Entry{
		UserRequest: req.UserRequest,
		Outcome:     audit.OutcomeSuccess,
		DurationMs:  elapsed.Milliseconds(),
	}
	if spec != nil {
		if data, err := json.Marshal(spec); err == nil {
			entry.SpecJSON = string(data)
		}
		entry.Collections = audit.JoinCollections(CollectionsInvolved(spec))
	}
	if resp != nil {
		entry.ResultCount = int64(resp.Results.TotalCount)
	}
	if runErr != nil {
		entry.Outcome = audit.OutcomeError
		entry.ErrorKind = string(domain.KindOf(runErr))
	}

	e.auditor.Record(ctx, entry)
}
