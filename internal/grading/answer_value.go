package grading

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// AnswerValue is the decoded form of a stored answer key or a submitted
// answer. Legacy question rows store bare scalars ("B") where newer rows
// store structured JSON; Decode accepts both and never fails: anything
// that is not valid JSON is kept as a raw scalar.
type AnswerValue struct {
	kind    valueKind
	scalar  string
	list    []string
	mapping map[string]string
	object  map[string]json.RawMessage
}

type valueKind int

const (
	kindScalar valueKind = iota
	kindList
	kindMapping
	kindObject
)

// Decode parses raw into an AnswerValue. A JSON string, number or bool
// becomes a scalar; an array becomes a list; an object becomes either a
// key→value mapping (all scalar values) or a structured object (any nested
// value, e.g. a bow-tie key with findings/actions arrays).
func Decode(raw json.RawMessage) AnswerValue {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return AnswerValue{kind: kindScalar, scalar: ""}
	}

	var decoded interface{}
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		// not JSON: a bare option letter or plain text is a valid scalar
		return AnswerValue{kind: kindScalar, scalar: trimmed}
	}

	switch v := decoded.(type) {
	case string:
		return AnswerValue{kind: kindScalar, scalar: strings.TrimSpace(v)}
	case float64, bool:
		return AnswerValue{kind: kindScalar, scalar: stringify(v)}
	case nil:
		return AnswerValue{kind: kindScalar, scalar: ""}
	case []interface{}:
		list := make([]string, 0, len(v))
		for _, item := range v {
			list = append(list, stringify(item))
		}
		return AnswerValue{kind: kindList, list: list}
	case map[string]interface{}:
		flat := make(map[string]string, len(v))
		structured := false
		for _, item := range v {
			switch item.(type) {
			case []interface{}, map[string]interface{}:
				structured = true
			}
		}
		if structured {
			obj := make(map[string]json.RawMessage, len(v))
			for key, item := range v {
				b, _ := json.Marshal(item)
				obj[key] = b
			}
			return AnswerValue{kind: kindObject, object: obj}
		}
		for key, item := range v {
			flat[key] = stringify(item)
		}
		return AnswerValue{kind: kindMapping, mapping: flat}
	}

	return AnswerValue{kind: kindScalar, scalar: trimmed}
}

// Scalar returns the single-answer form. Lists of length one collapse to
// their element so {"selected":["B"]}-style payloads and bare "B" compare
// equal under strict grading.
func (v AnswerValue) Scalar() string {
	switch v.kind {
	case kindList:
		if len(v.list) == 1 {
			return v.list[0]
		}
		return strings.Join(v.list, ",")
	case kindMapping, kindObject:
		return ""
	default:
		return v.scalar
	}
}

// List returns the multi-answer form; a scalar is a one-element list.
func (v AnswerValue) List() []string {
	switch v.kind {
	case kindList:
		return v.list
	case kindScalar:
		if v.scalar == "" {
			return nil
		}
		return []string{v.scalar}
	default:
		return nil
	}
}

// Mapping returns the key→value form used by matrix, drag-drop and
// case-study answers. Set-valued cells are canonicalised order-insensitively
// so {"row1":["a","b"]} and {"row1":["b","a"]} compare equal.
func (v AnswerValue) Mapping() map[string]string {
	switch v.kind {
	case kindMapping:
		return v.mapping
	case kindObject:
		flat := make(map[string]string, len(v.object))
		for key, raw := range v.object {
			flat[key] = canonicalCell(raw)
		}
		return flat
	default:
		return nil
	}
}

// BowtieParts extracts the condition/findings/actions triple of a bow-tie
// answer. ok is false when the value has no such shape.
func (v AnswerValue) BowtieParts() (condition string, findings, actions []string, ok bool) {
	var get func(key string) (json.RawMessage, bool)
	switch v.kind {
	case kindObject:
		get = func(key string) (json.RawMessage, bool) { r, found := v.object[key]; return r, found }
	case kindMapping:
		get = func(key string) (json.RawMessage, bool) {
			s, found := v.mapping[key]
			if !found {
				return nil, false
			}
			b, _ := json.Marshal(s)
			return b, true
		}
	default:
		return "", nil, nil, false
	}

	if raw, found := get("condition"); found {
		condition = Decode(raw).Scalar()
		ok = true
	}
	if raw, found := get("findings"); found {
		findings = Decode(raw).List()
		ok = true
	}
	if raw, found := get("actions"); found {
		actions = Decode(raw).List()
		ok = true
	}
	return condition, findings, actions, ok
}

// Number parses the scalar form as a float.
func (v AnswerValue) Number() (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(v.Scalar()), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsEmpty reports whether the value carries no answer at all.
func (v AnswerValue) IsEmpty() bool {
	switch v.kind {
	case kindScalar:
		return v.scalar == ""
	case kindList:
		return len(v.list) == 0
	case kindMapping:
		return len(v.mapping) == 0
	case kindObject:
		return len(v.object) == 0
	}
	return true
}

func stringify(item interface{}) string {
	switch t := item.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

// canonicalCell renders a raw mapping cell as a comparable string; arrays
// are sorted first so cell comparison ignores option order.
func canonicalCell(raw json.RawMessage) string {
	v := Decode(raw)
	if v.kind == kindList {
		sorted := append([]string(nil), v.list...)
		sort.Strings(sorted)
		return strings.Join(sorted, "|")
	}
	return v.Scalar()
}
