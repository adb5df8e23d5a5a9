package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pandausagies/postbot/internal/chance"
	"github.com/pandausagies/postbot/internal/config"
)

func TestChooseTarget(t *testing.T) {
	windows := []config.Window{{StartHour: 18, EndHour: 20}, {StartHour: 22, EndHour: 24}}
	tests := []struct {
		name string
		now  time.Time
		ints []int
		want time.Time
	}{
		{
			name: "later today",
			now:  time.Date(2026, 10, 14, 9, 0, 0, 0, jst),
			ints: []int{1, 1, 59, 59},
			want: time.Date(2026, 10, 14, 23, 59, 59, 0, jst),
		},
		{
			name: "already passed rolls to tomorrow",
			now:  time.Date(2026, 10, 14, 21, 0, 0, 0, jst),
			ints: []int{0, 0, 0, 0},
			want: time.Date(2026, 10, 15, 18, 0, 0, 0, jst),
		},
		{
			name: "equal to now rolls to tomorrow",
			now:  time.Date(2026, 10, 14, 18, 5, 6, 0, jst),
			ints: []int{0, 0, 5, 6},
			want: time.Date(2026, 10, 15, 18, 5, 6, 0, jst),
		},
		{
			name: "month boundary",
			now:  time.Date(2026, 10, 31, 23, 30, 0, 0, jst),
			ints: []int{0, 1, 0, 0},
			want: time.Date(2026, 11, 1, 19, 0, 0, 0, jst),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ChooseTarget(tc.now, windows, &chance.Scripted{Ints: tc.ints})
			if !got.Equal(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			if !got.After(tc.now) {
				t.Fatalf("target %v is not after now %v", got, tc.now)
			}
		})
	}
}

func TestChooseTarget_StaysInsideWindow(t *testing.T) {
	windows := []config.Window{{StartHour: 22, EndHour: 24}}
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, jst)
	random := chance.NewSource()
	for i := 0; i < 200; i++ {
		got := ChooseTarget(now, windows, random)
		if got.Hour() < 22 || got.Hour() > 23 {
			t.Fatalf("hour %d outside window", got.Hour())
		}
	}
}

func TestWait(t *testing.T) {
	if err := Wait(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := Wait(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("cancelled wait should return promptly")
	}

	if err := Wait(context.Background(), -time.Second); err != nil {
		t.Fatalf("non-positive wait: %v", err)
	}
}
