package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiresApproval(t *testing.T) {
	flagged := OrderItem{Product: Product{Name: "Ergonomic Chair", RequiresApproval: true}}
	plain := OrderItem{Product: Product{Name: "USB Cable", RequiresApproval: false}}

	tests := []struct {
		name  string
		order Order
		want  bool
	}{
		{"plain items, no special request", Order{Items: []OrderItem{plain}}, false},
		{"one flagged item", Order{Items: []OrderItem{plain, flagged}}, true},
		{"special request on plain items", Order{Items: []OrderItem{plain}, SpecialRequest: "left-handed model please"}, true},
		{"whitespace-only special request", Order{Items: []OrderItem{plain}, SpecialRequest: "   \t\n"}, false},
		{"flagged item and special request", Order{Items: []OrderItem{flagged}, SpecialRequest: "asap"}, true},
		{"no items at all", Order{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RequiresApproval(&tt.order))
		})
	}
}
