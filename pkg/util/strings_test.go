package util

import (
	"reflect"
	"testing"
)

func TestSplitList(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{in: "", want: nil},
		{in: "  ", want: nil},
		{in: "Global", want: []string{"Global"}},
		{in: "Global, Crypto", want: []string{"Global", "Crypto"}},
		{in: ",Global,,Europe ,", want: []string{"Global", "Europe"}},
		{in: " , ", want: nil},
	}
	for _, tc := range cases {
		if got := SplitList(tc.in, ","); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("SplitList(%q) = %#v, want %#v", tc.in, got, tc.want)
		}
	}
}
