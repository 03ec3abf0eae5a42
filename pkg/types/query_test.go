// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchQuery_TypeOf(t *testing.T) {
	q := SearchQuery{
		Names:     []string{"Alice Tan", "Jordan"},
		Companies: []string{"Acme", "Jordan"},
	}

	tests := []struct {
		name   string
		want   EntityType
		wantOK bool
	}{
		{"Alice Tan", EntityIndividual, true},
		{"Acme", EntityCompany, true},
		{"Jordan", EntityCompany, true},
		{"Nobody", "", false},
		{"acme", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := q.TypeOf(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchQuery_Validate(t *testing.T) {
	assert.Error(t, SearchQuery{}.Validate())
	assert.Error(t, SearchQuery{Names: []string{"a"}, Language: "fr"}.Validate())
	assert.NoError(t, SearchQuery{Companies: []string{"Acme"}}.Validate())
}
