package main

import "testing"

func TestParseColumnMap(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]int
		wantErr bool
	}{
		{name: "pairs", pairs: []string{"sku=0", " Quantity = 3 "}, want: map[string]int{"sku": 0, "quantity": 3}},
		{name: "missing separator", pairs: []string{"sku"}, wantErr: true},
		{name: "empty field", pairs: []string{"=1"}, wantErr: true},
		{name: "negative index", pairs: []string{"sku=-1"}, wantErr: true},
		{name: "not a number", pairs: []string{"sku=a"}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseColumnMap(tc.pairs)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for k, v := range tc.want {
				if got[k] != v {
					t.Fatalf("got[%q] = %d, want %d", k, got[k], v)
				}
			}
		})
	}
}
