package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/alex-user-go/tours/internal/obs"
	"github.com/alex-user-go/tours/internal/search/types"
	"github.com/alex-user-go/tours/internal/store"
	"github.com/alex-user-go/tours/internal/tourvisor"
)

// Submitter is the upstream surface the orchestrator drives. Tests provide
// canned transports through it.
type Submitter interface {
	Get(ctx context.Context, rawURL string, params map[string]string) (map[string]any, error)
}

// PollPolicy bounds the poll loop: a fixed attempt budget separated by a
// fixed delay. The loop has no cancellation of its own; once submitted, a
// run polls until readiness or budget exhaustion.
type PollPolicy struct {
	Interval time.Duration
	Attempts int
}

// Config holds the orchestrator's knobs.
type Config struct {
	ModsearchURL  string
	ModresultURL  string
	ResultIDParam string
	SearchIDKeys  []string
	DefaultLimit  int
	Policy        PollPolicy
}

// Orchestrator drives one search end to end: normalize, submit, poll until
// the result block carries priced tours, then flatten, deduplicate and cap
// the output.
type Orchestrator struct {
	client     Submitter
	normalizer *Normalizer
	results    *ResultNormalizer
	store      *store.Store
	cfg        Config
	sleep      func(time.Duration)
	logger     *zap.Logger
}

func NewOrchestrator(client Submitter, normalizer *Normalizer, results *ResultNormalizer, st *store.Store, cfg Config, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		client:     client,
		normalizer: normalizer,
		results:    results,
		store:      st,
		cfg:        cfg,
		sleep:      time.Sleep,
		logger:     logger,
	}
}

// WithSleep replaces the inter-poll delay. Intended for tests.
func (o *Orchestrator) WithSleep(sleep func(time.Duration)) *Orchestrator {
	o.sleep = sleep
	return o
}

// SearchTours runs the full submit-then-poll flow for a loosely-keyed
// payload. Errors are the structured taxonomy from errors.go plus transport
// errors from the client.
func (o *Orchestrator) SearchTours(ctx context.Context, payload map[string]any) (*types.SearchResult, error) {
	opts := OptionsFromPayload(payload, o.cfg.DefaultLimit)

	normalized, err := o.normalizer.Normalize(ctx, payload)
	if err != nil {
		obs.SearchesTotal.WithLabelValues("unresolved_country").Inc()
		return nil, err
	}

	o.store.UpdateAuth(
		tourvisor.ToStr(normalized["session"]),
		tourvisor.ToStr(normalized["referrer"]),
	)
	countryID, _ := tourvisor.ToInt(normalized["country"])

	requestID := opts.RequestID
	if requestID == "" {
		requestID, err = o.submit(ctx, normalized)
		if err != nil {
			return nil, err
		}
	}
	o.store.SetLast(requestID, payload)

	result, err := o.poll(ctx, requestID, countryID, opts)
	if err != nil {
		return nil, err
	}
	obs.SearchesTotal.WithLabelValues("ok").Inc()
	return result, nil
}

// Submit performs a raw submit call with the given parameters, without any
// normalization or polling. Used by the diagnostics surface.
func (o *Orchestrator) Submit(ctx context.Context, params map[string]any) (map[string]any, error) {
	return o.client.Get(ctx, o.cfg.ModsearchURL, toQuery(params))
}

// Poll performs a single raw poll call for a request id. Used by the
// diagnostics surface.
func (o *Orchestrator) Poll(ctx context.Context, requestID string) (map[string]any, error) {
	return o.client.Get(ctx, o.cfg.ModresultURL, map[string]string{o.cfg.ResultIDParam: requestID})
}

func (o *Orchestrator) submit(ctx context.Context, normalized map[string]any) (string, error) {
	resp, err := o.client.Get(ctx, o.cfg.ModsearchURL, toQuery(normalized))
	if err != nil {
		obs.SearchesTotal.WithLabelValues("error").Inc()
		return "", err
	}
	requestID := extractRequestID(resp, o.cfg.SearchIDKeys)
	if requestID == "" {
		obs.SearchesTotal.WithLabelValues("no_inventory").Inc()
		return "", &NoRequestIDError{}
	}
	o.logger.Debug("search submitted", zap.String("request_id", requestID))
	return requestID, nil
}

func (o *Orchestrator) poll(ctx context.Context, requestID string, countryID int, opts Options) (*types.SearchResult, error) {
	sawBlock := false
	for attempt := 0; attempt < o.cfg.Policy.Attempts; attempt++ {
		if attempt > 0 {
			o.sleep(o.cfg.Policy.Interval)
		}
		obs.PollAttemptsTotal.Inc()

		resp, err := o.Poll(ctx, requestID)
		if err != nil {
			// Transient poll failures are tolerated; the budget decides.
			o.logger.Debug("poll attempt failed",
				zap.String("request_id", requestID),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}
		if !HasBlock(resp) {
			continue
		}
		sawBlock = true
		if !HasPricedTour(resp) {
			continue
		}

		session, referrer := o.store.Auth()
		tours := o.results.Normalize(ctx, resp, ResultContext{
			CountryID:     countryID,
			Session:       session,
			Referrer:      referrer,
			RefreshHotels: opts.RefreshHotels,
		})
		if opts.UniqueHotels {
			tours = UniqueHotels(tours)
		}
		if opts.Limit > 0 && len(tours) > opts.Limit {
			tours = tours[:opts.Limit]
		}
		return &types.SearchResult{RequestID: requestID, Tours: tours}, nil
	}

	obs.SearchesTotal.WithLabelValues("exhausted").Inc()
	return nil, &PollExhaustedError{RequestID: requestID, SawBlock: sawBlock}
}

// extractRequestID scans a submit response for the request identifier:
// result.requestid first, then the configured alias keys in order.
func extractRequestID(payload map[string]any, keys []string) string {
	if result := tourvisor.AsMap(payload["result"]); result != nil {
		if rid := tourvisor.ToStr(result["requestid"]); rid != "" {
			return rid
		}
	}
	for _, k := range keys {
		if rid := tourvisor.ToStr(payload[k]); rid != "" {
			return rid
		}
	}
	return ""
}

func toQuery(params map[string]any) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = tourvisor.ToStr(v)
	}
	return out
}
