package refcache

import (
	"sort"
)

// SynonymResolver maps alternate names to canonical codes. Synonyms are fixed
// when the cache is built and do not depend on the loaded rows.
type SynonymResolver struct {
	// byCode maps a canonical synonym code to its canonical target code.
	byCode map[string]string
	// byName maps a synonym accessor name to its canonical target code.
	byName map[string]string
	// byPredicate maps a synonym predicate name to its canonical target code.
	byPredicate map[string]string
}

// NewSynonymResolver validates synonyms (alternate -> canonical) for the named
// type. Empty names, self references, chains and two synonyms folding to the
// same accessor name are reported as *ConfigError.
func NewSynonymResolver(typeName string, synonyms map[string]string) (*SynonymResolver, error) {
	s := &SynonymResolver{
		byCode:      make(map[string]string, len(synonyms)),
		byName:      make(map[string]string, len(synonyms)),
		byPredicate: make(map[string]string, len(synonyms)),
	}

	// Iterate in a fixed order so the reported error is deterministic.
	alternates := make([]string, 0, len(synonyms))
	for alt := range synonyms {
		alternates = append(alternates, alt)
	}
	sort.Strings(alternates)

	for _, alt := range alternates {
		target := Canonical(synonyms[alt])
		code := Canonical(alt)
		name := AccessorName(code)

		switch {
		case name == "":
			return nil, &ConfigError{Type: typeName, Name: alt, Message: "synonym does not form an accessor name"}
		case AccessorName(target) == "":
			return nil, &ConfigError{Type: typeName, Name: alt, Message: "synonym target does not form an accessor name"}
		case code == target:
			return nil, &ConfigError{Type: typeName, Name: alt, Message: "synonym refers to itself"}
		}

		if _, dup := s.byName[name]; dup {
			return nil, &ConfigError{Type: typeName, Name: name, Message: "two synonyms share this accessor name"}
		}

		s.byCode[code] = target
		s.byName[name] = target
		s.byPredicate[predicatePrefix+name] = target
	}

	for _, alt := range alternates {
		target := s.byCode[Canonical(alt)]
		if _, chained := s.byCode[target]; chained {
			return nil, &ConfigError{Type: typeName, Name: alt, Message: "synonym target " + target + " is itself a synonym"}
		}
	}

	return s, nil
}

// Resolve returns the canonical target of a canonical synonym code.
func (s *SynonymResolver) Resolve(code string) (string, bool) {
	if s == nil {
		return "", false
	}
	target, ok := s.byCode[code]
	return target, ok
}

// ResolveName returns the canonical target of a synonym accessor name.
func (s *SynonymResolver) ResolveName(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	target, ok := s.byName[name]
	return target, ok
}

// ResolvePredicate returns the canonical target of a synonym predicate name.
func (s *SynonymResolver) ResolvePredicate(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	target, ok := s.byPredicate[name]
	return target, ok
}

// Names returns the synonym accessor names in sorted order.
func (s *SynonymResolver) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.byName))
	for name := range s.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of declared synonyms.
func (s *SynonymResolver) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byCode)
}
