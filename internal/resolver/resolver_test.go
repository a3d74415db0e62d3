package resolver

import (
	"context"
	"errors"
	"testing"
)

type fakeLocationClient struct {
	code  string
	err   error
	calls int
}

func (f *fakeLocationClient) LookupCode(ctx context.Context, keyword string) (string, error) {
	f.calls++
	return f.code, f.err
}

func TestResolveStaticTableSkipsLookup(t *testing.T) {
	lookup := &fakeLocationClient{code: "XXX"}
	r := New(lookup)

	cases := map[string]string{
		"tokyo":  "TYO",
		" HND ":  "HND",
		"羽田":     "HND",
		"OSAKA":  "OSA",
		"那覇":     "OKA",
		"london": "LON",
	}
	for input, want := range cases {
		if got := r.Resolve(context.Background(), input); got != want {
			t.Errorf("Resolve(%q) = %q, want %q", input, got, want)
		}
	}

	if lookup.calls != 0 {
		t.Errorf("static table hit triggered %d external lookups", lookup.calls)
	}
}

func TestResolveUnknownLooksUpOnceThenCaches(t *testing.T) {
	lookup := &fakeLocationClient{code: "AXT"}
	r := New(lookup)

	if got := r.Resolve(context.Background(), "akita"); got != "AXT" {
		t.Fatalf("Resolve = %q, want AXT", got)
	}
	if lookup.calls != 1 {
		t.Fatalf("expected exactly one lookup, got %d", lookup.calls)
	}

	if got := r.Resolve(context.Background(), "AKITA"); got != "AXT" {
		t.Fatalf("cached Resolve = %q, want AXT", got)
	}
	if lookup.calls != 1 {
		t.Errorf("second resolve hit the external API (%d calls)", lookup.calls)
	}
}

func TestResolveFallsBackToInput(t *testing.T) {
	lookup := &fakeLocationClient{err: errors.New("upstream down")}
	r := New(lookup)

	if got := r.Resolve(context.Background(), " abc "); got != "ABC" {
		t.Errorf("Resolve = %q, want normalized input ABC", got)
	}

	// nil lookup client must not panic
	r = New(nil)
	if got := r.Resolve(context.Background(), "xyz"); got != "XYZ" {
		t.Errorf("Resolve without lookup = %q, want XYZ", got)
	}
	if got := r.Resolve(context.Background(), ""); got != "" {
		t.Errorf("Resolve(\"\") = %q, want empty", got)
	}
}
