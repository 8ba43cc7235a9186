package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

func TestDumpCarriesCodeAndRetryable(t *testing.T) {
	err := Wrap(CodeNetwork, fmt.Errorf("dial tcp: connection refused"), "save cart")
	d := Dump(err)

	if d.Code != CodeNetwork {
		t.Fatalf("expected NETWORK_FAILURE, got %q", d.Code)
	}
	if !d.Retryable {
		t.Fatal("expected network failures to be retryable")
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %v", d.Chain)
	}
}

func TestDumpExtractsPostgresDetails(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_cart_items_customer_item", TableName: "cart_items"}
	d := Dump(Wrap(CodeConflict, pgErr, "replace cart"))

	if d.PGCode != "23505" || d.PGConstraint != "idx_cart_items_customer_item" || d.PGTable != "cart_items" {
		t.Fatalf("unexpected pg fields %+v", d)
	}
}

func TestDumpExtractsSQLiteCodes(t *testing.T) {
	liteErr := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}
	d := Dump(fmt.Errorf("insert: %w", liteErr))

	if d.SQLiteCode != int(sqlite3.ErrConstraint) {
		t.Fatalf("expected sqlite constraint code, got %d", d.SQLiteCode)
	}
	if d.SQLiteExtended != int(sqlite3.ErrConstraintUnique) {
		t.Fatalf("expected unique extended code, got %d", d.SQLiteExtended)
	}
	if d.Code != "" || d.Retryable {
		t.Fatalf("uncoded errors carry no code, got %+v", d)
	}
}

func TestDumpNil(t *testing.T) {
	if d := Dump(nil); d.TopMessage != "" || d.Chain != nil {
		t.Fatalf("expected empty dump, got %+v", d)
	}
}
