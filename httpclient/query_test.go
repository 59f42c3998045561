package httpclient

import (
	"testing"
)

func TestEncodeQuery_Sorted(t *testing.T) {
	params := QueryParams{"offset": 0, "limit": 1000, "cleanValue": true, "flatten": false}
	want := "cleanValue=true&flatten=false&limit=1000&offset=0"
	for i := 0; i < 20; i++ {
		if got := EncodeQuery(params); got != want {
			t.Fatalf("iteration %d: got %q, want %q", i, got, want)
		}
	}
}

func TestEncodeQuery_Escaping(t *testing.T) {
	params := QueryParams{
		"fields":    []string{"userId", "#id", "#createdAt", "postMeta"},
		"delimiter": ", ",
		"view":      "a/b&c=d",
		"unicode":   "é",
	}
	want := "delimiter=%2C+&fields=userId%2C%23id%2C%23createdAt%2CpostMeta&unicode=%C3%A9&view=a%2Fb%26c%3Dd"
	if got := EncodeQuery(params); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEncodeQuery_SkipsUnset(t *testing.T) {
	var nilStr *string
	var nilInt *int
	limit := 5
	params := QueryParams{
		"a": nil,
		"b": nilStr,
		"c": nilInt,
		"d": []string{},
		"e": &limit,
	}
	if got := EncodeQuery(params); got != "e=5" {
		t.Errorf("got %q, want %q", got, "e=5")
	}
	if got := EncodeQuery(nil); got != "" {
		t.Errorf("nil params: got %q, want empty", got)
	}
}

func TestEncodeQuery_Numbers(t *testing.T) {
	params := QueryParams{"int64": int64(-3), "float": 60.0, "frac": 0.5, "uint": uint(7)}
	want := "float=60&frac=0.5&int64=-3&uint=7"
	if got := EncodeQuery(params); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

type sortOrder string

type label struct{ name string }

func (l label) String() string { return "label:" + l.name }

func TestEncodeQuery_PointersAndNamedTypes(t *testing.T) {
	i64 := int64(7)
	u := uint(3)
	f32 := float32(1.5)
	i8 := int8(-2)
	order := sortOrder("desc")
	flag := true
	pp := &flag

	params := QueryParams{
		"a": &i64,
		"b": (*int64)(nil),
		"c": &u,
		"d": &f32,
		"e": &i8,
		"f": order,
		"g": &order,
		"h": &pp,
		"i": (*uint16)(nil),
		"j": []sortOrder{"x", "y"},
		"k": label{"x"},
		"l": (*label)(nil),
		"m": &label{"y"},
	}
	want := "a=7&c=3&d=1.5&e=-2&f=desc&g=desc&h=true&j=x%2Cy&k=label%3Ax&m=label%3Ay"
	for i := 0; i < 5; i++ {
		if got := EncodeQuery(params); got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	}
}

func TestEncodeQuery_OmitsUnsupportedKinds(t *testing.T) {
	params := QueryParams{
		"map":    map[string]int{"a": 1},
		"struct": struct{ A int }{1},
		"ints":   []int{1, 2},
		"fn":     func() {},
		"ok":     "yes",
	}
	if got := EncodeQuery(params); got != "ok=yes" {
		t.Errorf("got %q, want %q", got, "ok=yes")
	}
}

func TestAppendQuery(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		params QueryParams
		want   string
	}{
		{"empty", "/items", QueryParams{}, "/items"},
		{"first group", "/items", QueryParams{"b": 2, "a": 1}, "/items?a=1&b=2"},
		{"second group", "/items?b=2", QueryParams{"a": 1}, "/items?b=2&a=1"},
		{"all unset", "/items", QueryParams{"a": nil}, "/items"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AppendQuery(tt.path, tt.params); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQueryParams_SetIf(t *testing.T) {
	p := QueryParams{}
	p.Set("a", 1).SetIf(false, "b", 2).SetIf(true, "c", "x")
	if got := p.Encode(); got != "a=1&c=x" {
		t.Errorf("got %q, want %q", got, "a=1&c=x")
	}
}
