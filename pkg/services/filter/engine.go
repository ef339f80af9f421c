package filter

import (
	"strings"

	"github.com/de-tools/book-atlas/pkg/models/domain"
)

const directChannel = "direct"

// Predicate decides whether a record is kept.
type Predicate func(domain.Record) bool

// Exact keeps records whose field equals value, ignoring case.
func Exact(field, value string) Predicate {
	value = strings.TrimSpace(value)
	return func(r domain.Record) bool {
		return strings.EqualFold(strings.TrimSpace(r.String(field)), value)
	}
}

// Substring keeps records whose field contains value, ignoring case.
func Substring(field, value string) Predicate {
	term := strings.ToLower(strings.TrimSpace(value))
	return func(r domain.Record) bool {
		s := r.String(field)
		return s != "" && strings.Contains(strings.ToLower(s), term)
	}
}

// Search keeps records where any of fields contains term, ignoring case.
func Search(fields []string, term string) Predicate {
	term = strings.ToLower(strings.TrimSpace(term))
	return func(r domain.Record) bool {
		for _, f := range fields {
			s := r.String(f)
			if s != "" && strings.Contains(strings.ToLower(s), term) {
				return true
			}
		}
		return false
	}
}

// Direct reports whether the raw channel value denotes a direct relationship.
func Direct(channel string) bool {
	return strings.EqualFold(strings.TrimSpace(channel), directChannel)
}

// Partner reports whether the raw channel value denotes a partner relationship.
func Partner(channel string) bool {
	channel = strings.TrimSpace(channel)
	return channel != "" && !Direct(channel)
}

// Channel keeps records by relationship. "Direct" and "Partner" are derived from the raw
// field; any other value must match the raw field (a named partner).
func Channel(field, value string) Predicate {
	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case directChannel:
		return func(r domain.Record) bool { return Direct(r.String(field)) }
	case "partner":
		return func(r domain.Record) bool { return Partner(r.String(field)) }
	}
	return Exact(field, value)
}

// Build turns the active entries of set into predicates. Names without a definition are skipped.
func Build(defs []domain.FilterDef, set domain.FilterSet) []Predicate {
	var preds []Predicate
	for _, def := range defs {
		value := strings.TrimSpace(set[def.Name])
		if value == "" {
			continue
		}
		switch def.Kind {
		case domain.FilterKindExact:
			preds = append(preds, Exact(def.Field, value))
		case domain.FilterKindSubstring:
			preds = append(preds, Substring(def.Field, value))
		case domain.FilterKindSearch:
			preds = append(preds, Search(def.Fields, value))
		case domain.FilterKindChannel:
			preds = append(preds, Channel(def.Field, value))
		}
	}
	return preds
}

// Apply returns the records that satisfy every predicate, in their original order.
// The input is never modified and the result is always a new slice.
func Apply(records []domain.Record, preds ...Predicate) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if matchAll(r, preds) {
			out = append(out, r)
		}
	}
	return out
}

// ApplySet is Apply over the predicates built from defs and set.
func ApplySet(records []domain.Record, defs []domain.FilterDef, set domain.FilterSet) []domain.Record {
	return Apply(records, Build(defs, set)...)
}

func matchAll(r domain.Record, preds []Predicate) bool {
	for _, p := range preds {
		if !p(r) {
			return false
		}
	}
	return true
}
