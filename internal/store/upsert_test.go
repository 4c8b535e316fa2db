package store

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"stockpipeline/internal/model"
)

func makeRows(n int) []model.StockRow {
	rows := make([]model.StockRow, n)
	for i := range rows {
		rows[i].Symbol = "AAPL"
	}
	return rows
}

func TestChunkRows(t *testing.T) {
	tests := []struct {
		name string
		rows int
		size int
		want []int
	}{
		{"empty", 0, 200, nil},
		{"single partial chunk", 5, 200, []int{5}},
		{"exact multiple", 400, 200, []int{200, 200}},
		{"remainder", 450, 200, []int{200, 200, 50}},
		{"size one", 3, 1, []int{1, 1, 1}},
		{"non-positive size means one chunk", 7, 0, []int{7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := chunkRows(makeRows(tt.rows), tt.size)
			if len(chunks) != len(tt.want) {
				t.Fatalf("chunk count = %d, want %d", len(chunks), len(tt.want))
			}
			total := 0
			for i, chunk := range chunks {
				if len(chunk) != tt.want[i] {
					t.Errorf("chunk[%d] len = %d, want %d", i, len(chunk), tt.want[i])
				}
				total += len(chunk)
			}
			if total != tt.rows {
				t.Errorf("total rows across chunks = %d, want %d", total, tt.rows)
			}
		})
	}
}

type fakeNetError struct{}

func (fakeNetError) Error() string   { return "connection reset by peer" }
func (fakeNetError) Timeout() bool   { return false }
func (fakeNetError) Temporary() bool { return true }

var _ net.Error = fakeNetError{}

func TestTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock detected", &pgconn.PgError{Code: "40P01"}, true},
		{"connection failure class", &pgconn.PgError{Code: "08006"}, true},
		{"admin shutdown is not retried", &pgconn.PgError{Code: "57P01"}, false},
		{"unique violation is not retried", &pgconn.PgError{Code: "23505"}, false},
		{"syntax error is not retried", &pgconn.PgError{Code: "42601"}, false},
		{"wrapped pg error", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"net error", fakeNetError{}, true},
		{"wrapped net error", fmt.Errorf("dial: %w", fakeNetError{}), true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := transient(tt.err); got != tt.want {
				t.Errorf("transient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestUpsertSQLOverwritesOnConflict(t *testing.T) {
	// The statement must be an upsert on the (symbol, ts) key that
	// overwrites every value column, keeping repeated ingestion idempotent.
	if !strings.Contains(upsertSQL, "ON CONFLICT (symbol, ts) DO UPDATE") {
		t.Fatalf("upsertSQL missing conflict clause:\n%s", upsertSQL)
	}
	for _, col := range []string{"open", "high", "low", "close", "volume", "raw"} {
		want := fmt.Sprintf("%s = EXCLUDED.%s", col, col)
		if !strings.Contains(upsertSQL, want) {
			t.Errorf("upsertSQL missing %q", want)
		}
	}
}
