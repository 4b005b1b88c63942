package artifact

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/punchamoorthee/estatedocs/internal/domain"
)

var tokenPattern = regexp.MustCompile(`^[0-9a-f]{8}$`)

func TestNewTokenShape(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	dupes := 0
	for i := 0; i < 10000; i++ {
		tok, err := NewToken()
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		if !tokenPattern.MatchString(tok) {
			t.Fatalf("token %q is not 8 lowercase hex chars", tok)
		}
		if _, ok := seen[tok]; ok {
			dupes++
		}
		seen[tok] = struct{}{}
	}
	// 32 bits over 10k draws: a couple of birthday collisions are possible, more are not.
	if dupes > 3 {
		t.Fatalf("%d duplicate tokens in 10000 draws", dupes)
	}
}

func TestPairFor(t *testing.T) {
	got := PairFor("lease_agreement", "ab12cd34")
	want := domain.ArtifactPair{
		Token:        "ab12cd34",
		DocumentType: "lease_agreement",
		Preview:      "preview_lease_agreement_ab12cd34.pdf",
		Final:        "lease_agreement_ab12cd34.pdf",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("pair (-want +got):\n%s", diff)
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"sales_contract":   "sales_contract",
		"../../etc/passwd": "______etc_passwd",
		"":                 "document",
		"Lease Agreement":  "Lease_Agreement",
		"hoa-addendum":     "hoa-addendum",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
	if got := Slug(strings.Repeat("x", 200)); len(got) != maxSlugLength {
		t.Errorf("long slug length = %d", len(got))
	}
}

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"sales_contract_ab12cd34.pdf", "preview_x_00000000.pdf"} {
		if err := ValidateName(ok); err != nil {
			t.Errorf("ValidateName(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "..", ".tokens", "../secret.pdf", "a/b.pdf", `a\b.pdf`, ".tmp-123"} {
		if err := ValidateName(bad); !errors.Is(err, domain.ErrInvalidArtifactName) {
			t.Errorf("ValidateName(%q) = %v", bad, err)
		}
	}
}

func TestNamerRedrawsTakenTokens(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()
	if err := reg.Reserve(ctx, domain.ArtifactPair{Token: "aaaaaaaa"}); err != nil {
		t.Fatal(err)
	}

	draws := []string{"aaaaaaaa", "aaaaaaaa", "bbbbbbbb"}
	n := NewNamer(reg)
	n.newToken = func() (string, error) {
		tok := draws[0]
		draws = draws[1:]
		return tok, nil
	}

	pair, err := n.Next(ctx, "addendum")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if pair.Token != "bbbbbbbb" || pair.Final != "addendum_bbbbbbbb.pdf" {
		t.Fatalf("pair = %+v", pair)
	}
}

func TestNamerGivesUp(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()
	_ = reg.Reserve(ctx, domain.ArtifactPair{Token: "cccccccc"})

	calls := 0
	n := NewNamer(reg)
	n.newToken = func() (string, error) {
		calls++
		return "cccccccc", nil
	}
	if _, err := n.Next(ctx, "disclosure"); !errors.Is(err, domain.ErrTokenExhausted) {
		t.Fatalf("err = %v", err)
	}
	if calls != MaxReserveAttempts {
		t.Fatalf("drew %d tokens, want %d", calls, MaxReserveAttempts)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := s.Put(ctx, "a_00000001.pdf", []byte("%PDF-1.3 body")); err != nil {
		t.Fatalf("put: %v", err)
	}
	ok, err := s.Exists(ctx, "a_00000001.pdf")
	if err != nil || !ok {
		t.Fatalf("exists = %v, %v", ok, err)
	}

	obj, err := s.Open(ctx, "a_00000001.pdf")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, _ := io.ReadAll(obj)
	obj.Close()
	if string(data) != "%PDF-1.3 body" || obj.Info.Size != int64(len(data)) {
		t.Fatalf("read %q size %d", data, obj.Info.Size)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}

	if err := s.Remove(ctx, "a_00000001.pdf"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.Open(ctx, "a_00000001.pdf"); !errors.Is(err, domain.ErrArtifactNotFound) {
		t.Fatalf("open after remove: %v", err)
	}
	if err := s.Remove(ctx, "a_00000001.pdf"); err != nil {
		t.Fatalf("second remove: %v", err)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	s, _ := NewFileStore(filepath.Join(root, "downloads"))
	if err := os.WriteFile(filepath.Join(root, "secret.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Open(context.Background(), "../secret.pdf"); !errors.Is(err, domain.ErrInvalidArtifactName) {
		t.Fatalf("err = %v", err)
	}
	if err := s.Put(context.Background(), "../escape.pdf", []byte("x")); !errors.Is(err, domain.ErrInvalidArtifactName) {
		t.Fatalf("err = %v", err)
	}
}

func TestMarkerRegistry(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStore(dir)
	reg, err := NewMarkerRegistry(dir, s)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	pair := PairFor("sales_contract", "0a1b2c3d")
	if err := reg.Reserve(ctx, pair); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := reg.Reserve(ctx, pair); !errors.Is(err, domain.ErrTokenTaken) {
		t.Fatalf("second reserve: %v", err)
	}
	if err := reg.Release(ctx, pair); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := reg.Reserve(ctx, pair); err != nil {
		t.Fatalf("reserve after release: %v", err)
	}

	// an artifact stored before the marker existed still blocks the token
	legacy := PairFor("addendum", "ffffffff")
	if err := s.Put(ctx, legacy.Final, []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := reg.Reserve(ctx, legacy); !errors.Is(err, domain.ErrTokenTaken) {
		t.Fatalf("legacy reserve: %v", err)
	}
}

func TestMarkerRegistryConcurrentReserve(t *testing.T) {
	dir := t.TempDir()
	reg, err := NewMarkerRegistry(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	pair := PairFor("disclosure", "12345678")

	var wg sync.WaitGroup
	var mu sync.Mutex
	won := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := reg.Reserve(ctx, pair); err == nil {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if won != 1 {
		t.Fatalf("%d goroutines reserved the same token", won)
	}
}

func TestParseName(t *testing.T) {
	for _, name := range []string{"sales_contract_ab12cd34.pdf", "preview_sales_contract_ab12cd34.pdf"} {
		pair, ok := ParseName(name)
		if !ok || pair.Token != "ab12cd34" || pair.DocumentType != "sales_contract" {
			t.Errorf("ParseName(%q) = %+v, %v", name, pair, ok)
		}
	}
	for _, name := range []string{"notes.txt", "contract.pdf", "x_ABCDEFGH.pdf", "x_abc.pdf", "_ab12cd34.pdf"} {
		if _, ok := ParseName(name); ok {
			t.Errorf("ParseName(%q) accepted", name)
		}
	}
}

func TestFileStoreList(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStore(dir)
	ctx := context.Background()
	_ = s.Put(ctx, "b_00000002.pdf", []byte("b"))
	_ = s.Put(ctx, "a_00000001.pdf", []byte("a"))
	_ = os.WriteFile(filepath.Join(dir, ".tmp-999"), []byte("partial"), 0o644)
	_ = os.Mkdir(filepath.Join(dir, "sub"), 0o755)

	got, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, a := range got {
		names = append(names, a.Name)
	}
	if diff := cmp.Diff([]string{"a_00000001.pdf", "b_00000002.pdf"}, names); diff != "" {
		t.Fatalf("list (-want +got):\n%s", diff)
	}
}
