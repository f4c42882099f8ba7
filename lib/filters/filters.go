// Package filters implements the two-stage filter specification applied
// to harvested records. Filters over fields present on a bare listing
// record are "fast"; filters over fields that only exist in enriched
// metadata are "slow" and force an enrichment fetch per surviving record.
package filters

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type Op string

const (
	OpEq          Op = "eq"
	OpGt          Op = "gt"
	OpGte         Op = "gte"
	OpLt          Op = "lt"
	OpLte         Op = "lte"
	OpContains    Op = "contains"
	OpRegex       Op = "re"
	OpContainsAny Op = "contains_any"
	OpContainsAll Op = "contains_all"
)

// Condition maps operators to operands for a single field.
type Condition map[Op]any

// Spec maps field names to conditions. A record passes a spec only if
// every field's condition holds.
type Spec map[string]Condition

type FieldType int

const (
	Numeric FieldType = iota
	Text
	List
	Date
	Bool
)

type Field struct {
	Type FieldType
	// Slow fields require an enrichment fetch before their true value
	// is known.
	Slow bool
}

// Registry declares the filterable fields of one record kind.
type Registry map[string]Field

var VideoFields = Registry{
	"view_count":          {Type: Numeric},
	"duration_seconds":    {Type: Numeric},
	"title":               {Type: Text},
	"description_snippet": {Type: Text},
	"publish_date":        {Type: Date},
	"like_count":          {Type: Numeric, Slow: true},
	"category":            {Type: Text, Slow: true},
	"keywords":            {Type: List, Slow: true},
	"full_description":    {Type: Text, Slow: true},
}

var CommentFields = Registry{
	"text":                {Type: Text},
	"author":              {Type: Text},
	"channel_id":          {Type: Text},
	"reply_count":         {Type: Numeric},
	"publish_date":        {Type: Date},
	"is_reply":            {Type: Bool},
	"is_pinned":           {Type: Bool},
	"is_by_owner":         {Type: Bool},
	"is_hearted_by_owner": {Type: Bool},
	"like_count":          {Type: Numeric, Slow: true},
}

var opsByType = map[FieldType][]Op{
	Numeric: {OpEq, OpGt, OpGte, OpLt, OpLte},
	Date:    {OpEq, OpGt, OpGte, OpLt, OpLte},
	Text:    {OpEq, OpContains, OpRegex},
	List:    {OpContainsAny, OpContainsAll},
	Bool:    {OpEq},
}

// Partition validates spec against reg and splits it into fast and slow
// subsets. Unknown fields, operators invalid for a field's type, and
// uncompilable regex operands are configuration errors reported here,
// before any record is evaluated.
func Partition(spec Spec, reg Registry) (fast Spec, slow Spec, err error) {
	fast = Spec{}
	slow = Spec{}

	for name, cond := range spec {
		field, ok := reg[name]
		if !ok {
			return nil, nil, fmt.Errorf("unknown filter field %q", name)
		}
		for op, operand := range cond {
			if !opAllowed(field.Type, op) {
				return nil, nil, fmt.Errorf("operator %q is not valid for field %q", op, name)
			}
			if op == OpRegex {
				pattern, ok := operand.(string)
				if !ok {
					return nil, nil, fmt.Errorf("regex operand for field %q must be a string", name)
				}
				if _, err := regexp.Compile("(?i)" + pattern); err != nil {
					return nil, nil, fmt.Errorf("invalid regex for field %q: %w", name, err)
				}
			}
		}
		if field.Slow {
			slow[name] = cond
		} else {
			fast[name] = cond
		}
	}
	return fast, slow, nil
}

func opAllowed(t FieldType, op Op) bool {
	for _, allowed := range opsByType[t] {
		if op == allowed {
			return true
		}
	}
	return false
}

// HasSlow reports whether any field of spec is slow under reg.
func HasSlow(spec Spec, reg Registry) bool {
	for name := range spec {
		if reg[name].Slow {
			return true
		}
	}
	return false
}

// DateValue carries a record's date alongside how trustworthy it is. A
// date estimated from relative text is compared permissively, widened
// by its slack window.
type DateValue struct {
	Time      time.Time
	Estimated bool
	Slack     time.Duration
}

// Outcome is the result of evaluating one record against a spec.
// Ambiguous means at least one estimated date landed within its slack
// window of a condition boundary, so the permissive verdict may flip
// once the precise date is known.
type Outcome struct {
	Pass      bool
	Ambiguous bool
}

// Evaluate checks a record's fields against a previously validated
// spec. Semantics are a logical AND across fields; a missing field
// fails unconditionally.
func Evaluate(fields map[string]any, spec Spec) Outcome {
	out := Outcome{Pass: true}
	for name, cond := range spec {
		value, ok := fields[name]
		if !ok || value == nil {
			return Outcome{}
		}

		var pass, ambiguous bool
		switch v := value.(type) {
		case DateValue:
			pass, ambiguous = evalDate(v, cond)
		case string:
			pass = evalText(v, cond)
		case bool:
			pass = evalBool(v, cond)
		case []string:
			pass = evalList(v, cond)
		default:
			n, ok := toFloat(value)
			if !ok {
				return Outcome{}
			}
			pass = evalNumeric(n, cond)
		}

		if !pass {
			return Outcome{}
		}
		out.Ambiguous = out.Ambiguous || ambiguous
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func evalNumeric(value float64, cond Condition) bool {
	for op, operand := range cond {
		bound, ok := toFloat(operand)
		if !ok {
			return false
		}
		if !compare(value, bound, op) {
			return false
		}
	}
	return true
}

func compare[T float64 | int64](value, bound T, op Op) bool {
	switch op {
	case OpEq:
		return value == bound
	case OpGt:
		return value > bound
	case OpGte:
		return value >= bound
	case OpLt:
		return value < bound
	case OpLte:
		return value <= bound
	}
	return false
}

func evalDate(value DateValue, cond Condition) (pass, ambiguous bool) {
	pass = true
	for op, operand := range cond {
		bound, ok := toTime(operand)
		if !ok {
			return false, false
		}
		strict := compare(value.Time.Unix(), bound.Unix(), op)
		if !value.Estimated {
			if !strict {
				return false, false
			}
			continue
		}

		// estimated dates get a window of one granularity unit: a
		// strict miss inside the window still passes (permissively),
		// and a strict hit inside the window is flagged so the engine
		// can re-check with the precise date after enrichment.
		within := absDuration(value.Time.Sub(bound)) <= value.Slack
		if !strict && !within {
			return false, false
		}
		if within {
			ambiguous = true
		}
	}
	return pass, ambiguous
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case DateValue:
		return t.Time, true
	case string:
		parsed, err := time.Parse("2006-01-02", t)
		if err != nil {
			parsed, err = time.Parse(time.RFC3339, t)
		}
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}

func evalText(value string, cond Condition) bool {
	for op, operand := range cond {
		pattern, ok := operand.(string)
		if !ok {
			return false
		}
		switch op {
		case OpEq:
			if !strings.EqualFold(value, pattern) {
				return false
			}
		case OpContains:
			if !strings.Contains(strings.ToLower(value), strings.ToLower(pattern)) {
				return false
			}
		case OpRegex:
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil || !re.MatchString(value) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func evalBool(value bool, cond Condition) bool {
	for op, operand := range cond {
		b, ok := operand.(bool)
		if op != OpEq || !ok || value != b {
			return false
		}
	}
	return true
}

func evalList(values []string, cond Condition) bool {
	lowered := make(map[string]bool, len(values))
	for _, v := range values {
		lowered[strings.ToLower(v)] = true
	}

	for op, operand := range cond {
		wanted, ok := toStringList(operand)
		if !ok {
			return false
		}
		switch op {
		case OpContainsAny:
			any := false
			for _, w := range wanted {
				if lowered[strings.ToLower(w)] {
					any = true
					break
				}
			}
			if !any {
				return false
			}
		case OpContainsAll:
			for _, w := range wanted {
				if !lowered[strings.ToLower(w)] {
					return false
				}
			}
		default:
			return false
		}
	}
	return true
}

func toStringList(v any) ([]string, bool) {
	switch l := v.(type) {
	case []string:
		return l, true
	case []any:
		out := make([]string, 0, len(l))
		for _, item := range l {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
