package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/punchamoorthee/estatedocs/internal/domain"
)

func TestBuildReserve(t *testing.T) {
	at := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	pair := domain.ArtifactPair{
		Token:        "ab12cd34",
		DocumentType: "sales_contract",
		Preview:      "preview_sales_contract_ab12cd34.pdf",
		Final:        "sales_contract_ab12cd34.pdf",
	}

	query, args, err := buildReserve(newBuilder(), pair, at)
	if err != nil {
		t.Fatal(err)
	}
	wantQuery := "INSERT INTO artifact_tokens (token,document_type,preview_name,final_name,reserved_at) VALUES ($1,$2,$3,$4,$5)"
	if query != wantQuery {
		t.Fatalf("query = %q", query)
	}
	wantArgs := []interface{}{pair.Token, pair.DocumentType, pair.Preview, pair.Final, at}
	if diff := cmp.Diff(wantArgs, args); diff != "" {
		t.Fatalf("args (-want +got):\n%s", diff)
	}
}

func TestBuildRelease(t *testing.T) {
	query, args, err := buildRelease(newBuilder(), "ab12cd34")
	if err != nil {
		t.Fatal(err)
	}
	if query != "DELETE FROM artifact_tokens WHERE token = $1" {
		t.Fatalf("query = %q", query)
	}
	if len(args) != 1 || args[0] != "ab12cd34" {
		t.Fatalf("args = %v", args)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	dup := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"})
	if !isUniqueViolation(dup) {
		t.Fatal("wrapped 23505 not detected")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "40001"}) {
		t.Fatal("serialization failure reported as unique violation")
	}
	if isUniqueViolation(errors.New("connection refused")) {
		t.Fatal("plain error reported as unique violation")
	}
}

func TestBuildExisting(t *testing.T) {
	query, args, err := buildExisting(newBuilder(), []string{"aaaaaaaa", "bbbbbbbb"})
	if err != nil {
		t.Fatal(err)
	}
	if query != "SELECT token FROM artifact_tokens WHERE token IN ($1,$2)" {
		t.Fatalf("query = %q", query)
	}
	if diff := cmp.Diff([]interface{}{"aaaaaaaa", "bbbbbbbb"}, args); diff != "" {
		t.Fatalf("args (-want +got):\n%s", diff)
	}
}
