package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	cases := map[string]int{"00:00": 0, "8:30": 510, "08:30": 510, "23:59": 1439}
	for in, want := range cases {
		got, err := ParseClock(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"24:00", "12:60", "1230", "12:5", "ab:cd", ""} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestOverlapsHalfOpen(t *testing.T) {
	existing := Interval{Start: 8 * 60, End: 9 * 60}
	tests := []struct {
		name      string
		candidate Interval
		want      bool
	}{
		{"start inside", Interval{Start: 8*60 + 30, End: 9*60 + 30}, true},
		{"end inside", Interval{Start: 7 * 60, End: 8*60 + 30}, true},
		{"contains", Interval{Start: 7 * 60, End: 10 * 60}, true},
		{"contained", Interval{Start: 8*60 + 15, End: 8*60 + 45}, true},
		{"identical", existing, true},
		{"back to back after", Interval{Start: 9 * 60, End: 10 * 60}, false},
		{"back to back before", Interval{Start: 7 * 60, End: 8 * 60}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(existing, tt.candidate))
			assert.Equal(t, tt.want, Overlaps(tt.candidate, existing))
		})
	}
}

func TestScheduleSetTimes(t *testing.T) {
	var s Schedule
	require.NoError(t, s.SetTimes("8:00", "09:30"))
	assert.Equal(t, "08:00", s.StartTime)
	assert.Equal(t, 570, s.EndMinute)

	assert.Error(t, s.SetTimes("10:00", "10:00"))
	assert.Error(t, s.SetTimes("11:00", "10:00"))
}

func TestNewPageComputesTotalPages(t *testing.T) {
	page := NewPage([]int{1, 2}, 5, 1, 2)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, &Pagination{Page: 1, Limit: 2, Total: 5, TotalPages: 3}, page.Meta())

	empty := NewPage[int](nil, 0, 1, 10)
	assert.Equal(t, 0, empty.TotalPages)
	assert.NotNil(t, empty.Data)
}

func TestListOptionsNormalize(t *testing.T) {
	opts := ListOptions{Page: 2, Limit: 500, OrderDirection: "desc"}.Normalize()
	assert.Equal(t, MaxPageSize, opts.Limit)
	assert.Equal(t, "DESC", opts.OrderDirection)
	assert.Equal(t, 100, opts.Offset())
	assert.True(t, opts.Paginated())
	assert.False(t, ListOptions{Page: 1}.Paginated())
}

func TestVerificationCodeState(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	one := 1
	code := VerificationCode{MaxUsage: &one, UsageCount: 1, ExpiresAt: &past}
	assert.True(t, code.Exhausted())
	assert.True(t, code.Expired(now))

	open := VerificationCode{}
	assert.False(t, open.Exhausted())
	assert.False(t, open.Expired(now))
}

func TestBaseStamp(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var b Base
	b.Stamp(now)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, now, b.CreatedAt)

	id := b.ID
	later := now.Add(time.Hour)
	b.Stamp(later)
	assert.Equal(t, id, b.ID)
	assert.Equal(t, now, b.CreatedAt)
	assert.Equal(t, later, b.UpdatedAt)
}
