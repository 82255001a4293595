package handlers

import "testing"

func TestIsPermutation(t *testing.T) {
	cases := []struct {
		name  string
		order []int
		n     int
		want  bool
	}{
		{"identity", []int{1, 2, 3}, 3, true},
		{"reversed", []int{3, 2, 1}, 3, true},
		{"wrong length", []int{1, 2}, 3, false},
		{"duplicate", []int{1, 1, 3}, 3, false},
		{"out of range", []int{1, 2, 4}, 3, false},
		{"zero n empty order", nil, 0, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := isPermutation(c.order, c.n); got != c.want {
				t.Errorf("isPermutation(%v, %d) = %v, want %v", c.order, c.n, got, c.want)
			}
		})
	}
}
