package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		expr string
		n    int
		want []int
	}{
		{"single", "2", 5, []int{2}},
		{"list and range", "1,3-5", 10, []int{1, 3, 4, 5}},
		{"reversed range", "9-7", 10, []int{7, 8, 9}},
		{"duplicates removed", "2,2,1-3", 5, []int{2, 1, 3}},
		{"whitespace", " 1 , 4 - 5 ", 5, []int{1, 4, 5}},
		{"out of range ignored", "0,6,3", 5, []int{3}},
		{"range clipped", "4-99", 5, []int{4, 5}},
		{"malformed ignored", "a,1-b,--,3", 5, []int{3}},
		{"empty", "", 5, nil},
		{"no items", "1,2", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.expr, tt.n))
		})
	}
}
