package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSpans(t *testing.T) {
	tests := []struct {
		name string
		in   []Span
		want []Span
	}{
		{
			name: "empty",
			in:   nil,
			want: nil,
		},
		{
			name: "single",
			in:   []Span{{480, 720}},
			want: []Span{{480, 720}},
		},
		{
			name: "disjoint stay separate",
			in:   []Span{{480, 720}, {780, 1020}},
			want: []Span{{480, 720}, {780, 1020}},
		},
		{
			name: "overlapping merge",
			in:   []Span{{480, 660}, {600, 720}},
			want: []Span{{480, 720}},
		},
		{
			name: "adjacent merge",
			in:   []Span{{480, 600}, {600, 720}},
			want: []Span{{480, 720}},
		},
		{
			name: "unsorted input",
			in:   []Span{{780, 1020}, {480, 720}},
			want: []Span{{480, 720}, {780, 1020}},
		},
		{
			name: "contained span absorbed",
			in:   []Span{{480, 720}, {540, 600}},
			want: []Span{{480, 720}},
		},
		{
			name: "zero length dropped",
			in:   []Span{{480, 480}, {540, 600}},
			want: []Span{{540, 600}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeSpans(tt.in)
			assert.Equal(t, tt.want, got)

			// Result must be sorted, disjoint and non-adjacent.
			for i := 1; i < len(got); i++ {
				assert.Less(t, got[i-1].End, got[i].Start)
			}
		})
	}
}

func TestSubtractSpans(t *testing.T) {
	tests := []struct {
		name string
		free []Span
		busy []Span
		want []Span
	}{
		{
			name: "no busy",
			free: []Span{{480, 720}},
			busy: nil,
			want: []Span{{480, 720}},
		},
		{
			name: "hole splits in two",
			free: []Span{{480, 720}},
			busy: []Span{{540, 600}},
			want: []Span{{480, 540}, {600, 720}},
		},
		{
			name: "leading edge trimmed",
			free: []Span{{480, 720}},
			busy: []Span{{420, 540}},
			want: []Span{{540, 720}},
		},
		{
			name: "trailing edge trimmed",
			free: []Span{{480, 720}},
			busy: []Span{{660, 780}},
			want: []Span{{480, 660}},
		},
		{
			name: "full cover empties",
			free: []Span{{480, 720}},
			busy: []Span{{0, 1440}},
			want: []Span{},
		},
		{
			name: "outside is a no-op",
			free: []Span{{480, 720}},
			busy: []Span{{780, 900}},
			want: []Span{{480, 720}},
		},
		{
			name: "touching boundary is not overlap",
			free: []Span{{480, 720}},
			busy: []Span{{720, 780}},
			want: []Span{{480, 720}},
		},
		{
			name: "multiple holes",
			free: []Span{{480, 720}, {780, 1020}},
			busy: []Span{{540, 600}, {840, 900}},
			want: []Span{{480, 540}, {600, 720}, {780, 840}, {900, 1020}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SubtractSpans(tt.free, tt.busy)
			require.Len(t, got, len(tt.want))
			assert.Equal(t, tt.want, got)
		})
	}
}
