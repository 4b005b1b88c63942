package catalog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	want := []DocumentType{
		{Key: "sales_contract", Title: "Real Estate Sales Contract"},
		{Key: "lease_agreement", Title: "Residential Lease Agreement"},
		{Key: "addendum", Title: "Real Estate Contract Addendum"},
		{Key: "disclosure", Title: "Property Condition Disclosure"},
	}
	if diff := cmp.Diff(want, c.Types()); diff != "" {
		t.Fatalf("types mismatch (-want +got):\n%s", diff)
	}
	if c.FallbackKey() != "real_estate_document" {
		t.Fatalf("fallback key = %q", c.FallbackKey())
	}
}

func TestTitleFallsBackForUnknownKeys(t *testing.T) {
	c := Default()
	if got := c.Title("lease_agreement"); got != "Residential Lease Agreement" {
		t.Fatalf("title = %q", got)
	}
	if got := c.Title("quitclaim_deed"); got != "Real Estate Document" {
		t.Fatalf("unknown title = %q", got)
	}
	if c.Known("quitclaim_deed") {
		t.Fatalf("unknown key reported as known")
	}
}

func TestParseRejectsDuplicates(t *testing.T) {
	data := []byte(`
fallback: {key: doc, title: Doc}
types:
  - {key: a, title: A}
  - {key: a, title: B}
`)
	if _, err := Parse(data); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}

func TestParseRequiresFallback(t *testing.T) {
	if _, err := Parse([]byte("types: []")); err == nil {
		t.Fatalf("expected missing fallback error")
	}
}
