package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeArchiver struct {
	count  int64
	err    error
	calls  int
	cutoff time.Time
}

func (f *fakeArchiver) ArchiveSettled(_ context.Context, before time.Time) (int64, error) {
	f.calls++
	f.cutoff = before
	return f.count, f.err
}

func TestArchiverRun(t *testing.T) {
	fa := &fakeArchiver{count: 3}
	a := NewArchiver(fa, 30, slog.New(slog.DiscardHandler))

	err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fa.calls)

	// Cutoff is retentionDays in the past.
	wantCutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
	assert.WithinDuration(t, wantCutoff, fa.cutoff, time.Minute)
}

func TestArchiverRunError(t *testing.T) {
	fa := &fakeArchiver{err: errors.New("bucket gone")}
	a := NewArchiver(fa, 30, slog.New(slog.DiscardHandler))

	err := a.Run(context.Background())
	assert.Error(t, err)
}

func TestNextCronTime(t *testing.T) {
	after := time.Date(2026, 2, 20, 12, 30, 45, 0, time.UTC)

	tests := []struct {
		name string
		expr string
		want time.Time
	}{
		{
			name: "every minute",
			expr: "* * * * *",
			want: time.Date(2026, 2, 20, 12, 31, 0, 0, time.UTC),
		},
		{
			name: "top of the hour",
			expr: "0 * * * *",
			want: time.Date(2026, 2, 20, 13, 0, 0, 0, time.UTC),
		},
		{
			name: "monthly at 3am",
			expr: "0 3 1 * *",
			want: time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC),
		},
		{
			name: "value list",
			expr: "0,30 * * * *",
			want: time.Date(2026, 2, 20, 13, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nextCronTime(tt.expr, after)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCronRejectsMalformed(t *testing.T) {
	_, err := parseCron("0 3 1 *")
	assert.Error(t, err)

	_, err = parseCron("x * * * *")
	assert.Error(t, err)
}
