package variables

import "testing"

func TestExpand(t *testing.T) {
	store := NewStore()
	store.Set("id", "123")
	store.Set("name", "alice")

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{name: "simple substitution", template: "/users/{{id}}", want: "/users/123"},
		{name: "multiple substitutions", template: "{{name}}-{{id}}", want: "alice-123"},
		{name: "missing key kept", template: "hello {{other}}", want: "hello {{other}}"},
		{name: "default used", template: "page={{page|1}}", want: "page=1"},
		{name: "empty default", template: "q={{query|}}", want: "q="},
		{name: "value beats default", template: "{{id|0}}", want: "123"},
		{name: "no placeholders", template: "static", want: "static"},
		{name: "empty template", template: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Expand(tt.template, store); got != tt.want {
				t.Errorf("Expand(%q) = %q, want %q", tt.template, got, tt.want)
			}
		})
	}
}

func TestExpandNilStore(t *testing.T) {
	if got := Expand("{{a|x}} {{b}}", nil); got != "x {{b}}" {
		t.Fatalf("expected defaults only, got %q", got)
	}
}

func TestExpandMap(t *testing.T) {
	store := NewStore()
	store.Set("token", "abc")
	out := ExpandMap(map[string]string{"Authorization": "Bearer {{token}}"}, store)
	if out["Authorization"] != "Bearer abc" {
		t.Fatalf("expected expanded header, got %q", out["Authorization"])
	}
}
