package gwl

import (
	"fmt"
	"sort"
	"strings"
)

// matchOrder lists keyword-matched kinds longest keyword first (ties broken
// alphabetically) so that a short keyword can never swallow a line that a
// longer keyword claims. Built once at init.
var matchOrder []Kind

// customDecoders maps the multi-field kinds to their decoders. They are
// installed here rather than in the catalog literal: the decoders read
// specs back for their error messages, which would make the literal
// self-referential.
var customDecoders = map[Kind]func(Kind, string) (Instruction, error){
	KindInclude: decodeInclude,
	KindVar:     decodeAssign,
	KindLocal:   decodeAssign,
	KindSet:     decodeAssign,
}

func init() {
	for kind, dec := range customDecoders {
		spec := specs[kind]
		spec.decode = dec
		specs[kind] = spec
	}

	byKeyword := make(map[string]Kind, len(specs))

	for kind := Kind(1); kind < kindCount; kind++ {
		spec, ok := specs[kind]
		if !ok {
			panic(fmt.Sprintf("gwl: kind %d missing from catalog", kind))
		}

		switch kind {
		case KindUnknown, KindComment, KindEmpty:
			// Structural kinds are matched before the keyword table.
			continue
		}

		if spec.Keyword == "" || strings.ContainsAny(spec.Keyword, " \t") {
			panic(fmt.Sprintf("gwl: kind %s has malformed keyword %q", kind, spec.Keyword))
		}
		if prev, dup := byKeyword[spec.Keyword]; dup {
			panic(fmt.Sprintf("gwl: keyword %q registered for both %s and %s", spec.Keyword, prev, kind))
		}
		byKeyword[spec.Keyword] = kind

		custom := spec.Arg == ArgPath || spec.Arg == ArgAssign
		if custom && spec.decode == nil {
			panic(fmt.Sprintf("gwl: multi-field kind %s has no custom decoder", kind))
		}
		if !custom && spec.decode != nil {
			panic(fmt.Sprintf("gwl: single-field kind %s must not declare a custom decoder", kind))
		}

		matchOrder = append(matchOrder, kind)
	}

	sort.Slice(matchOrder, func(i, j int) bool {
		a, b := specs[matchOrder[i]].Keyword, specs[matchOrder[j]].Keyword
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})

	// No keyword may extend another keyword across a word boundary; this
	// only fires if a keyword ever contains whitespace.
	for _, kind := range matchOrder {
		kw := specs[kind].Keyword
		for _, other := range matchOrder {
			if kind == other {
				continue
			}
			ow := specs[other].Keyword
			if strings.HasPrefix(ow, kw) && len(ow) > len(kw) && (ow[len(kw)] == ' ' || ow[len(kw)] == '\t') {
				panic(fmt.Sprintf("gwl: keyword %q shadows %q at a word boundary", kw, ow))
			}
		}
	}
}

// Kinds returns every instruction kind in catalog order, including the
// structural comment, empty and unknown kinds.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount-1)
	for kind := Kind(1); kind < kindCount; kind++ {
		kinds = append(kinds, kind)
	}
	return kinds
}

// Lookup returns the spec for a kind.
func Lookup(kind Kind) (Spec, bool) {
	spec, ok := specs[kind]
	return spec, ok
}

// matchKeyword reports whether the line starts with the keyword followed by
// a word boundary: end of line, space or tab. Matching is case sensitive.
func matchKeyword(line, keyword string) bool {
	if !strings.HasPrefix(line, keyword) {
		return false
	}
	if len(line) == len(keyword) {
		return true
	}
	next := line[len(keyword)]
	return next == ' ' || next == '\t'
}
