package cache

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/goliatone/go-repository-kvcache/pkg/testsupport"
)

// KeyScenario represents a test scenario loaded from fixtures
type KeyScenario struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Cases       []KeyCase `json:"cases"`
}

// KeyCase represents individual test cases within a scenario
type KeyCase struct {
	Prefix      string `json:"prefix"`
	ID          any    `json:"id"`
	Filter      any    `json:"filter"`
	Options     any    `json:"options"`
	ExpectedKey string `json:"expectedKey"`
}

type keyFixtures struct {
	Scenarios []KeyScenario `json:"scenarios"`
}

type testFilter struct {
	Where map[string]any `json:"where,omitempty"`
	Limit int            `json:"limit,omitempty"`
}

func joinWithSeparator(parts ...string) string {
	return strings.Join(parts, KeySeparator)
}

func TestDeriveKey_Fixtures(t *testing.T) {
	var fixtures keyFixtures
	testsupport.LoadFixtureJSON(t, testsupport.FixturePath("key_scenarios.json"), &fixtures)

	if len(fixtures.Scenarios) == 0 {
		t.Fatal("expected fixture scenarios")
	}

	for _, scenario := range fixtures.Scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			for _, tc := range scenario.Cases {
				got := DeriveKey(tc.Prefix, tc.ID, tc.Filter, tc.Options)
				if got != tc.ExpectedKey {
					t.Errorf("DeriveKey() = %v, want %v", got, tc.ExpectedKey)
				}
			}
		})
	}
}

func TestDeriveKey_Segments(t *testing.T) {
	var nilFilter *testFilter
	var nilOptions map[string]any

	tests := []struct {
		name    string
		id      any
		filter  any
		options any
		want    string
	}{
		{
			name: "prefix only",
			want: "product",
		},
		{
			name: "int id",
			id:   7,
			want: joinWithSeparator("product", "7"),
		},
		{
			name: "empty string id is quoted",
			id:   "",
			want: joinWithSeparator("product", `""`),
		},
		{
			name: "string id with separator is quoted",
			id:   "sku_42",
			want: joinWithSeparator("product", `"sku_42"`),
		},
		{
			name: "string id that looks like json is quoted",
			id:   `{"a":1}`,
			want: joinWithSeparator("product", `"{\"a\":1}"`),
		},
		{
			name:    "options without filter keep an empty filter slot",
			options: map[string]any{"limit": 10},
			want:    joinWithSeparator("product", "", `{"limit":10}`),
		},
		{
			name:    "typed nil filter and options are omitted",
			id:      1,
			filter:  nilFilter,
			options: nilOptions,
			want:    joinWithSeparator("product", "1"),
		},
		{
			name:   "struct filter",
			filter: testFilter{Where: map[string]any{"color": "red"}, Limit: 5},
			want:   joinWithSeparator("product", `{"limit":5,"where":{"color":"red"}}`),
		},
		{
			name:    "options after filter",
			id:      3,
			filter:  map[string]any{"limit": 1},
			options: map[string]any{"tenant": "acme"},
			want:    joinWithSeparator("product", "3", `{"limit":1}`, `{"tenant":"acme"}`),
		},
		{
			name:   "empty filter is kept",
			filter: map[string]any{},
			want:   joinWithSeparator("product", "{}"),
		},
		{
			name: "composite id",
			id: struct {
				Org int `json:"org"`
				ID  int `json:"id"`
			}{Org: 2, ID: 9},
			want: joinWithSeparator("product", `{"id":9,"org":2}`),
		},
		{
			name: "pointer id",
			id:   func() *int { v := 11; return &v }(),
			want: joinWithSeparator("product", "11"),
		},
		{
			name:   "unmarshalable filter falls back to type",
			filter: make(chan int),
			want:   joinWithSeparator("product", "fallback:chan int"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveKey("product", tt.id, tt.filter, tt.options)
			if got != tt.want {
				t.Errorf("DeriveKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeriveKey_SegmentsDoNotCollide(t *testing.T) {
	limit := map[string]any{"limit": 10}
	pairs := [][2]string{
		{DeriveKey("product", nil, limit, nil), DeriveKey("product", nil, nil, limit)},
		{DeriveKey("product", `1_{"a":1}`, nil, nil), DeriveKey("product", 1, map[string]any{"a": 1}, nil)},
		{DeriveKey("product", "", nil, limit), DeriveKey("product", nil, nil, limit)},
		{DeriveKey("product", `{"id":9}`, nil, nil), DeriveKey("product", struct {
			ID int `json:"id"`
		}{ID: 9}, nil, nil)},
	}

	for i, pair := range pairs {
		if pair[0] == pair[1] {
			t.Errorf("pair %d: distinct tuples share key %q", i, pair[0])
		}
	}
}

func TestDeriveKey_UUIDUsesStringForm(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	got := DeriveKey("user", id, nil, nil)
	want := joinWithSeparator("user", "6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	if got != want {
		t.Errorf("DeriveKey() = %v, want %v", got, want)
	}
}

func TestDeriveKey_Stability(t *testing.T) {
	filter := map[string]any{"where": map[string]any{"a": 1, "b": []int{1, 2}}, "limit": 3}
	options := map[string]any{"x": true}

	key1 := DeriveKey("product", 1, filter, options)
	key2 := DeriveKey("product", 1, filter, options)

	if key1 != key2 {
		t.Errorf("key derivation should be stable: %v != %v", key1, key2)
	}
}

func TestDeriveKey_FieldOrderDoesNotMatter(t *testing.T) {
	asStruct := testFilter{Where: map[string]any{"b": 2, "a": 1}, Limit: 4}
	asMap := map[string]any{"where": map[string]any{"a": 1, "b": 2}, "limit": 4}

	if got, want := DeriveKey("p", nil, asStruct, nil), DeriveKey("p", nil, asMap, nil); got != want {
		t.Errorf("equivalent filters should share a key: %v != %v", got, want)
	}
}

func TestDeriveKey_DistinctIDs(t *testing.T) {
	seen := make(map[string]int)
	for id := 0; id < 100; id++ {
		key := DeriveKey("product", id, map[string]any{"limit": 1}, nil)
		if prev, ok := seen[key]; ok {
			t.Fatalf("ids %d and %d collide on %q", prev, id, key)
		}
		seen[key] = id
	}
}

func TestKeyDeriver_MaxSegmentLength(t *testing.T) {
	deriver := KeyDeriver{MaxSegmentLength: 16}
	filter := map[string]any{"where": map[string]any{"description": strings.Repeat("long ", 20)}}

	key := deriver.Derive("product", 7, filter, nil)

	prefix := joinWithSeparator("product", "7", "h")
	if !strings.HasPrefix(key, prefix) {
		t.Fatalf("expected hashed filter segment after %q, got %v", prefix, key)
	}
	if len(key) != len(prefix)+16 {
		t.Errorf("expected 16 hex digits in hashed segment, got %v", key)
	}
	if again := deriver.Derive("product", 7, filter, nil); again != key {
		t.Errorf("hashed key should be stable: %v != %v", again, key)
	}

	short := deriver.Derive("product", 7, map[string]any{"limit": 1}, nil)
	if short != joinWithSeparator("product", "7", `{"limit":1}`) {
		t.Errorf("short segments should not be hashed, got %v", short)
	}
}

func BenchmarkDeriveKey(b *testing.B) {
	filter := map[string]any{"where": map[string]any{"color": "red"}, "limit": 10}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DeriveKey("product", i, filter, nil)
	}
}
