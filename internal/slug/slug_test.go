package slug

import (
	"context"
	"strconv"
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Learn Rust", "learn-rust"},
		{"DE Shaw TPM Role", "de-shaw-tpm-role"},
		{"", ""},
		{"-Leading dash", "leading-dash"},
		{"trailing dash-", "trailing-dash"},
		{"snake_case_name", "snake-case-name"},
		{"Lots   of\tspace", "lots-of-space"},
		{"Punctuation, removed! (mostly)", "punctuation-removed-mostly"},
		{"Déjà Vu", "déjà-vu"},
		{"!!!", ""},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// fakeChecker reports existence from a fixed set.
type fakeChecker map[string]bool

func (f fakeChecker) SlugExists(_ context.Context, _, slug, _ string) (bool, error) {
	return f[slug], nil
}

func TestUnique_NoCollision(t *testing.T) {
	got, err := Unique(context.Background(), fakeChecker{}, "u1", "learn-rust", "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "learn-rust" {
		t.Errorf("slug = %q, want base unchanged", got)
	}
}

func TestUnique_AppendsSuffix(t *testing.T) {
	existing := fakeChecker{"learn-rust": true}
	got, err := Unique(context.Background(), existing, "u1", "learn-rust", "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "learn-rust-2" {
		t.Errorf("slug = %q, want learn-rust-2", got)
	}

	existing["learn-rust-2"] = true
	got, err = Unique(context.Background(), existing, "u1", "learn-rust", "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "learn-rust-3" {
		t.Errorf("slug = %q, want learn-rust-3", got)
	}
}

func TestUnique_GivesUpEventually(t *testing.T) {
	all := fakeChecker{}
	all["x"] = true
	for i := 2; i <= maxProbes+1; i++ {
		all["x-"+strconv.Itoa(i)] = true
	}
	if _, err := Unique(context.Background(), all, "u1", "x", ""); err == nil {
		t.Error("expected error when every candidate is taken")
	}
}
