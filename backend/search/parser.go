// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package search parses the query language used to filter saved games,
// e.g.
//
//	team:"Tigers" inning:>=7 saved:2026-04..2026-05 opener
package search

import (
	"strconv"
	"strings"
	"unicode"
)

// Operator defines the type of comparison for a filter.
type Operator string

const (
	OpEqual          Operator = "="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpRange          Operator = ".." // inning:3..5, saved:2026-04..2026-05
)

// prefixOps is checked in order, so two-character operators come first.
var prefixOps = []Operator{OpGreaterOrEqual, OpLessOrEqual, OpGreater, OpLess}

// Filter is one key:value criterion.
type Filter struct {
	Key      string
	Value    string
	MaxValue string // OpRange only
	Operator Operator
}

// Query is a parsed search string.
type Query struct {
	Filters  []Filter
	FreeText []string
}

// Empty reports whether q matches everything.
func (q Query) Empty() bool {
	return len(q.Filters) == 0 && len(q.FreeText) == 0
}

// Parse splits input into key:value filters and free text words. Quoted
// values may contain spaces and colons. Tokens that don't form a clean
// key:value pair are kept as free text.
func Parse(input string) Query {
	var q Query
	for _, token := range tokenize(input) {
		if f, ok := parseFilter(token); ok {
			q.Filters = append(q.Filters, f)
		} else {
			q.FreeText = append(q.FreeText, unquote(token))
		}
	}
	return q
}

func parseFilter(token string) (Filter, bool) {
	key, val, ok := strings.Cut(token, ":")
	if !ok {
		return Filter{}, false
	}
	key = strings.ToLower(strings.TrimSpace(key))
	val = strings.TrimSpace(val)
	if key == "" || val == "" || strings.ContainsAny(key, `"'`) {
		return Filter{}, false
	}
	quoted := strings.HasPrefix(val, `"`) || strings.HasPrefix(val, "'")
	if strings.Contains(val, ":") && !quoted {
		return Filter{}, false
	}

	if !quoted {
		if lo, hi, ok := strings.Cut(val, string(OpRange)); ok {
			return Filter{Key: key, Value: lo, MaxValue: hi, Operator: OpRange}, true
		}
	}
	for _, op := range prefixOps {
		if rest, ok := strings.CutPrefix(val, string(op)); ok {
			return Filter{Key: key, Value: unquote(rest), Operator: op}, true
		}
	}
	return Filter{Key: key, Value: unquote(val), Operator: OpEqual}, true
}

// tokenize splits the string by spaces, respecting quotes.
func tokenize(input string) []string {
	var tokens []string
	var cur strings.Builder
	var quote rune

	for _, r := range input {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
			cur.WriteRune(r)
		case unicode.IsSpace(r):
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		case r == '"' || r == '\'':
			quote = r
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// MatchInt reports whether v satisfies f. A value that isn't a number
// matches nothing.
func (f Filter) MatchInt(v int) bool {
	want, err := strconv.Atoi(f.Value)
	if err != nil {
		return false
	}
	if f.Operator == OpRange {
		hi, err := strconv.Atoi(f.MaxValue)
		if err != nil {
			return false
		}
		return v >= want && v <= hi
	}
	return compare(v-want, f.Operator)
}

// MatchPrefix compares v against f by prefix. Equality means v starts with
// the filter value, so saved:2026-04 matches every day in April. Ordering
// compares only as many characters as the filter value has.
func (f Filter) MatchPrefix(v string) bool {
	cut := func(bound string) string {
		if len(v) > len(bound) {
			return v[:len(bound)]
		}
		return v
	}
	if f.Operator == OpRange {
		return cut(f.Value) >= f.Value && cut(f.MaxValue) <= f.MaxValue
	}
	return compare(strings.Compare(cut(f.Value), f.Value), f.Operator)
}

// MatchText reports whether v contains the filter value, ignoring case.
func (f Filter) MatchText(v string) bool {
	return strings.Contains(strings.ToLower(v), strings.ToLower(f.Value))
}

func compare(c int, op Operator) bool {
	switch op {
	case OpGreater:
		return c > 0
	case OpGreaterOrEqual:
		return c >= 0
	case OpLess:
		return c < 0
	case OpLessOrEqual:
		return c <= 0
	default:
		return c == 0
	}
}
