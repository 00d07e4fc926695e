// Package search contains the orchestration core: payload normalization,
// the submit/poll loop, result flattening and hotel deduplication.
package search

import (
	"context"
	"strconv"
	"strings"

	"github.com/alex-user-go/tours/internal/refdata"
	"github.com/alex-user-go/tours/internal/tourvisor"
)

// Normalizer rewrites a loosely-keyed search payload into the canonical
// parameter set the submit endpoint expects: alias keys collapse into their
// canonical names, dates flip to the upstream's DD.MM.YYYY form, country and
// departure names resolve to numeric ids, and required-but-omitted fields
// get their defaults. Explicit values always win over aliases and defaults,
// so an already-canonical payload passes through unchanged.
type Normalizer struct {
	ref             *refdata.Cache
	defaultSession  string
	defaultReferrer string
}

func NewNormalizer(ref *refdata.Cache, defaultSession, defaultReferrer string) *Normalizer {
	return &Normalizer{
		ref:             ref,
		defaultSession:  defaultSession,
		defaultReferrer: defaultReferrer,
	}
}

// Options are the orchestration knobs carried in the payload but consumed
// locally rather than forwarded upstream.
type Options struct {
	Limit         int
	UniqueHotels  bool
	RefreshHotels bool
	RequestID     string
}

// OptionsFromPayload extracts the local knobs. UniqueHotels defaults to
// true; Limit falls back to the configured default.
func OptionsFromPayload(payload map[string]any, defaultLimit int) Options {
	opts := Options{Limit: defaultLimit, UniqueHotels: true}
	if n, ok := tourvisor.ToInt(tourvisor.FirstKey(payload, "limit", "max")); ok && n != 0 {
		opts.Limit = n
	}
	if v, present := payload["unique_hotels"]; present {
		opts.UniqueHotels = toBool(v)
	}
	opts.RefreshHotels = toBool(payload["refresh_hotels"])
	opts.RequestID = tourvisor.ToStr(tourvisor.FirstKey(payload, "requestid", "request_id"))
	return opts
}

// Normalize produces the canonical request parameters. It returns an
// *UnresolvedCountryError when a textual country cannot be resolved; a
// textual departure city that fails to resolve passes through as-is.
func (n *Normalizer) Normalize(ctx context.Context, payload map[string]any) (map[string]any, error) {
	data := make(map[string]any, len(payload))
	for k, v := range payload {
		data[k] = v
	}
	delete(data, "limit")
	delete(data, "max")
	delete(data, "unique_hotels")
	delete(data, "refresh_hotels")
	delete(data, "requestid")
	delete(data, "request_id")

	normalizeDateAlias(data, "datefrom", "date_from", "s_j_date_from")
	normalizeDateAlias(data, "dateto", "date_to", "s_j_date_to")
	normalizeNights(data)

	if err := n.normalizeCountry(ctx, data); err != nil {
		return nil, err
	}
	n.normalizeDeparture(ctx, data)

	if v, ok := data["s_adults"]; ok {
		if _, has := data["adults"]; !has {
			data["adults"] = v
		}
		delete(data, "s_adults")
	}

	if n.defaultReferrer != "" {
		setDefault(data, "referrer", n.defaultReferrer)
	}
	if n.defaultSession != "" {
		setDefault(data, "session", n.defaultSession)
	}

	setDefault(data, "regular", 1)
	setDefault(data, "child", 0)
	setDefault(data, "meal", 0)
	setDefault(data, "rating", 0)
	setDefault(data, "pricefrom", 0)
	setDefault(data, "priceto", 0)
	setDefault(data, "currency", 0)
	setDefault(data, "formmode", 0)
	setDefault(data, "pricetype", 0)

	return data, nil
}

func (n *Normalizer) normalizeCountry(ctx context.Context, data map[string]any) error {
	if v, ok := data["country"]; ok {
		if s, isText := v.(string); isText {
			key := strings.ToLower(strings.TrimSpace(s))
			id, found := n.ref.CountryIDs(ctx)[key]
			if !found {
				return &UnresolvedCountryError{Name: key}
			}
			data["country"] = id
		}
		return nil
	}
	if v, ok := data["s_country"]; ok {
		// Already-numeric form, passed through unresolved.
		data["country"] = v
		delete(data, "s_country")
	}
	return nil
}

func (n *Normalizer) normalizeDeparture(ctx context.Context, data map[string]any) {
	if v, ok := data["city_from"]; ok {
		delete(data, "city_from")
		if s, isText := v.(string); isText {
			key := strings.ToLower(strings.TrimSpace(s))
			if id, found := n.ref.DepartureIDs(ctx)[key]; found {
				data["departure"] = id
				return
			}
			// Unlike country, an unresolved departure is not fatal;
			// numeric strings still become ids.
			if id, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				data["departure"] = id
				return
			}
			data["departure"] = v
			return
		}
		data["departure"] = v
		return
	}
	if v, ok := data["s_flyfrom"]; ok {
		data["departure"] = v
		delete(data, "s_flyfrom")
	}
}

func normalizeDateAlias(data map[string]any, canonical string, aliases ...string) {
	if _, ok := data[canonical]; ok {
		for _, a := range aliases {
			delete(data, a)
		}
		return
	}
	for _, a := range aliases {
		if v, ok := data[a]; ok {
			data[canonical] = toUpstreamDate(v)
			delete(data, a)
			return
		}
	}
}

func normalizeNights(data map[string]any) {
	_, hasFrom := data["nightsfrom"]
	_, hasTo := data["nightsto"]
	if v, ok := data["nights"]; ok {
		if !hasFrom && !hasTo {
			data["nightsfrom"] = v
			data["nightsto"] = v
		}
		delete(data, "nights")
	}
	for canonical, aliases := range map[string][]string{
		"nightsfrom": {"nights_from", "s_nights_from"},
		"nightsto":   {"nights_to", "s_nights_to"},
	} {
		for _, a := range aliases {
			if v, ok := data[a]; ok {
				if _, has := data[canonical]; !has {
					data[canonical] = v
				}
				delete(data, a)
			}
		}
	}
}

// toUpstreamDate rewrites an ISO YYYY-MM-DD value to the upstream's
// DD.MM.YYYY form; anything else passes through as-is.
func toUpstreamDate(v any) any {
	if v == nil {
		return v
	}
	s := strings.TrimSpace(tourvisor.ToStr(v))
	if len(s) == 10 && s[4] == '-' && s[7] == '-' {
		return s[8:10] + "." + s[5:7] + "." + s[0:4]
	}
	return s
}

// toISODate rewrites DD.MM.YYYY to YYYY-MM-DD for rendered results; ISO
// values pass through, anything else is returned verbatim.
func toISODate(v any) string {
	s := strings.TrimSpace(tourvisor.ToStr(v))
	if len(s) == 10 && s[4] == '-' && s[7] == '-' {
		return s
	}
	if len(s) >= 10 && s[2] == '.' && s[5] == '.' {
		return s[6:10] + "-" + s[3:5] + "-" + s[0:2]
	}
	return s
}

func setDefault(data map[string]any, key string, value any) {
	if _, ok := data[key]; !ok {
		data[key] = value
	}
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "1" || s == "true" || s == "yes"
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return false
	}
}
