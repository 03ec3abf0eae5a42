// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the Argus pipeline:
// search queries, normalized news articles, company records, the search
// provider's wire format, and stage configuration.
package types

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used for publication dates,
// query bounds, and dated snapshot filenames.
const DateLayout = "2006-01-02"

// EntityType distinguishes people from organizations when submitting a
// search to the provider.
type EntityType string

const (
	EntityIndividual EntityType = "individual"
	EntityCompany    EntityType = "company"
)

// Language is the language code a query requests results in.
type Language string

const (
	LanguageEN   Language = "en"
	LanguageZHCN Language = "zh-cn"
	LanguageZHTW Language = "zh-tw"
)

// Valid reports whether l is one of the supported query languages.
func (l Language) Valid() bool {
	switch l {
	case LanguageEN, LanguageZHCN, LanguageZHTW:
		return true
	}
	return false
}

// ResultLanguage maps a query language onto the provider's result buckets:
// "en" for English and "zh" for both Chinese variants.
func (l Language) ResultLanguage() string {
	if l == LanguageEN || l == "" {
		return "en"
	}
	return "zh"
}

// Entity is one name from a query, tagged with its type.
type Entity struct {
	Name string
	Type EntityType
}

// SearchQuery describes one harvest run.
type SearchQuery struct {
	// Names are individuals to search for.
	Names []string `json:"names" yaml:"names"`

	// Companies are organizations to search for.
	Companies []string `json:"companies" yaml:"companies"`

	// Language selects which result bucket is normalized.
	Language Language `json:"language" yaml:"language"`

	// Since is an exclusive lower bound on publication date. Nil keeps everything.
	Since *time.Time `json:"since,omitempty" yaml:"since,omitempty"`
}

// Entities returns names then companies, each tagged with its type.
func (q SearchQuery) Entities() []Entity {
	out := make([]Entity, 0, len(q.Names)+len(q.Companies))
	for _, n := range q.Names {
		out = append(out, Entity{Name: n, Type: EntityIndividual})
	}
	for _, c := range q.Companies {
		out = append(out, Entity{Name: c, Type: EntityCompany})
	}
	return out
}

// TypeOf reports the entity type of name by membership in the query lists.
// A name in both lists is a company. The second result is false when the
// name appears in neither list.
func (q SearchQuery) TypeOf(name string) (EntityType, bool) {
	for _, c := range q.Companies {
		if c == name {
			return EntityCompany, true
		}
	}
	for _, n := range q.Names {
		if n == name {
			return EntityIndividual, true
		}
	}
	return "", false
}

// Validate checks the query language and that at least one entity is present.
func (q SearchQuery) Validate() error {
	if len(q.Names)+len(q.Companies) == 0 {
		return fmt.Errorf("query has no names or companies")
	}
	if q.Language != "" && !q.Language.Valid() {
		return fmt.Errorf("unsupported language %q (want en, zh-cn, or zh-tw)", q.Language)
	}
	return nil
}
