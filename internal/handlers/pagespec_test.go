package handlers

import (
	"reflect"
	"testing"
)

func TestParsePageSpec(t *testing.T) {
	cases := []struct {
		name  string
		spec  string
		total int
		want  []int
		isErr bool
	}{
		{"single page", "3", 5, []int{3}, false},
		{"range", "2-4", 5, []int{2, 3, 4}, false},
		{"mixed, dedup, unsorted", "4,1-2,2", 5, []int{1, 2, 4}, false},
		{"range clipped to total", "3-100", 5, []int{3, 4, 5}, false},
		{"out-of-range bare page dropped silently", "1,99", 5, []int{1}, false},
		{"empty spec", "", 5, nil, true},
		{"only whitespace", "  ,  ", 5, nil, true},
		{"inverted range rejected", "4-2", 5, nil, true},
		{"non-numeric token rejected", "abc", 5, nil, true},
		{"all tokens out of range", "99,100", 5, nil, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ParsePageSpec(c.spec, c.total)
			if c.isErr {
				if err == nil {
					t.Fatalf("expected an error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, c.want) {
				t.Fatalf("ParsePageSpec(%q, %d) = %v, want %v", c.spec, c.total, got, c.want)
			}
		})
	}
}

func TestComplement(t *testing.T) {
	got := Complement([]int{2, 4}, 5)
	want := []int{1, 3, 5}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Complement = %v, want %v", got, want)
	}
}

func TestComplement_EmptyInputKeepsEverything(t *testing.T) {
	got := Complement(nil, 3)
	want := []int{1, 2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Complement(nil, 3) = %v, want %v", got, want)
	}
}
