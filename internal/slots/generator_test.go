package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneratePool(t *testing.T) {
	tests := []struct {
		name     string
		duration int
		start    int
		end      int
		want     []string
	}{
		{
			name:     "one hour of half-hour slots",
			duration: 30,
			start:    9 * 60,
			end:      10 * 60,
			want:     []string{"09:00 AM", "09:30 AM"},
		},
		{
			name:     "end boundary excluded",
			duration: 60,
			start:    9 * 60,
			end:      12 * 60,
			want:     []string{"09:00 AM", "10:00 AM", "11:00 AM"},
		},
		{
			name:     "crosses noon",
			duration: 30,
			start:    11*60 + 30,
			end:      13 * 60,
			want:     []string{"11:30 AM", "12:00 PM", "12:30 PM"},
		},
		{
			name:     "duration not dividing window",
			duration: 45,
			start:    9 * 60,
			end:      11 * 60,
			want:     []string{"09:00 AM", "09:45 AM", "10:30 AM"},
		},
		{
			name:     "empty window",
			duration: 30,
			start:    10 * 60,
			end:      10 * 60,
			want:     nil,
		},
		{
			name:     "inverted window",
			duration: 30,
			start:    12 * 60,
			end:      9 * 60,
			want:     nil,
		},
		{
			name:     "non-positive duration",
			duration: 0,
			start:    9 * 60,
			end:      17 * 60,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GeneratePool(tt.duration, tt.start, tt.end))
		})
	}
}

// Labels must be strictly increasing by minute offset and the last one
// must be the greatest duration multiple from start below end.
func TestGeneratePoolOrdering(t *testing.T) {
	for _, duration := range []int{15, 30, 45, 60} {
		pool := GeneratePool(duration, 9*60, 17*60)
		assert.NotEmpty(t, pool)

		prev := -1
		for _, label := range pool {
			m := ToMinutes(label)
			assert.Greater(t, m, prev, "duration=%d label=%s", duration, label)
			assert.True(t, IsCanonicalLabel(label))
			prev = m
		}

		assert.Less(t, prev, 17*60)
		assert.GreaterOrEqual(t, prev+duration, 17*60)
	}
}

func TestDefaultPool(t *testing.T) {
	pool := DefaultPool()
	assert.Len(t, pool, 16)
	assert.Equal(t, "09:00 AM", pool[0])
	assert.Equal(t, "04:30 PM", pool[len(pool)-1])
}
