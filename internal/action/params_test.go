package action

import (
	"testing"
	"time"
)

func TestDurationParam(t *testing.T) {
	cases := []struct {
		name string
		val  any
		want time.Duration
		ok   bool
	}{
		{"go string", "1.5s", 1500 * time.Millisecond, true},
		{"millis string", "250ms", 250 * time.Millisecond, true},
		{"bare seconds int", 30, 30 * time.Second, true},
		{"bare seconds float", 0.5, 500 * time.Millisecond, true},
		{"garbage string", "soon", 0, false},
		{"wrong type", []string{"x"}, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := DurationParam(map[string]any{"d": tc.val}, "d")
			if ok != tc.ok || got != tc.want {
				t.Fatalf("DurationParam(%v) = (%v, %v), want (%v, %v)", tc.val, got, ok, tc.want, tc.ok)
			}
		})
	}

	if _, ok := DurationParam(map[string]any{}, "d"); ok {
		t.Fatal("missing key must not parse")
	}
}

func TestIntParam(t *testing.T) {
	if v, ok := IntParam(map[string]any{"n": 3}, "n"); !ok || v != 3 {
		t.Fatalf("IntParam(3) = (%v, %v)", v, ok)
	}
	if v, ok := IntParam(map[string]any{"n": float64(3)}, "n"); !ok || v != 3 {
		t.Fatalf("IntParam(3.0) = (%v, %v)", v, ok)
	}
	if _, ok := IntParam(map[string]any{"n": 3.5}, "n"); ok {
		t.Fatal("fractional values must not parse as int")
	}
}

func TestMapParam(t *testing.T) {
	// YAML v3 decodes string-keyed maps both ways depending on nesting.
	m1, ok := MapParam(map[string]any{"m": map[string]any{"a": 1}}, "m")
	if !ok || m1["a"] != 1 {
		t.Fatalf("string-keyed map: (%v, %v)", m1, ok)
	}
	m2, ok := MapParam(map[string]any{"m": map[any]any{"a": 1}}, "m")
	if !ok || m2["a"] != 1 {
		t.Fatalf("any-keyed map: (%v, %v)", m2, ok)
	}
	if _, ok := MapParam(map[string]any{"m": map[any]any{1: "a"}}, "m"); ok {
		t.Fatal("non-string keys must not parse")
	}
}
