package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoinPackage_MinorUnits(t *testing.T) {
	tests := []struct {
		price float64
		want  int64
	}{
		{price: 500, want: 50000},
		{price: 1.99, want: 199},
		{price: 0.29, want: 29},
		{price: 1234.5, want: 123450},
	}

	for _, tt := range tests {
		p := &CoinPackage{Price: tt.price}
		assert.Equal(t, tt.want, p.MinorUnits(), "price %v", tt.price)
	}
}
