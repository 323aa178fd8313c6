package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapTxError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{
			name: "nil passes through",
			in:   nil,
			want: nil,
		},
		{
			name: "serialization failure is a lost race",
			in:   &pgconn.PgError{Code: "40001"},
			want: ErrSlotConflict,
		},
		{
			name: "deadlock detected is a lost race",
			in:   &pgconn.PgError{Code: "40P01"},
			want: ErrSlotConflict,
		},
		{
			name: "lock not available is transient",
			in:   &pgconn.PgError{Code: "55P03"},
			want: ErrTxTimeout,
		},
		{
			name: "statement cancelled is transient",
			in:   &pgconn.PgError{Code: "57014"},
			want: ErrTxTimeout,
		},
		{
			name: "context deadline is transient",
			in:   context.DeadlineExceeded,
			want: ErrTxTimeout,
		},
		{
			name: "wrapped pg error still maps",
			in:   fmt.Errorf("conflict re-check: %w", &pgconn.PgError{Code: "40001"}),
			want: ErrSlotConflict,
		},
		{
			name: "wrapped deadline still maps",
			in:   fmt.Errorf("commit reservation: %w", context.DeadlineExceeded),
			want: ErrTxTimeout,
		},
		{
			name: "unrelated pg error passes through",
			in:   &pgconn.PgError{Code: "23505"},
			want: nil, // asserted below: same error back, unmapped
		},
		{
			name: "plain error passes through",
			in:   errors.New("connection reset"),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapTxError(tt.in)
			if tt.want != nil {
				assert.ErrorIs(t, got, tt.want)
				return
			}
			// Unmapped inputs must come back unchanged, never swallowed.
			assert.Equal(t, tt.in, got)
		})
	}
}
