package schedule

import (
	"testing"
	"time"
)

func TestNewWorkdayGrid(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		end       string
		slotMin   int
		wantCount int
		wantFirst string
		wantLast  string
		wantErr   bool
	}{
		{
			name:      "production grid",
			start:     "09:00",
			end:       "20:00",
			slotMin:   60,
			wantCount: 12,
			wantFirst: "09:00",
			wantLast:  "20:00",
		},
		{
			name:      "half hour grid",
			start:     "10:00",
			end:       "12:00",
			slotMin:   30,
			wantCount: 5,
			wantFirst: "10:00",
			wantLast:  "12:00",
		},
		{
			name:    "end before start",
			start:   "20:00",
			end:     "09:00",
			slotMin: 60,
			wantErr: true,
		},
		{
			name:    "zero slot duration",
			start:   "09:00",
			end:     "20:00",
			slotMin: 0,
			wantErr: true,
		},
		{
			name:    "garbage start",
			start:   "morning",
			end:     "20:00",
			slotMin: 60,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day, err := NewWorkday(tt.start, tt.end, tt.slotMin)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			slots := day.BaseSlots()
			if len(slots) != tt.wantCount {
				t.Fatalf("slot count = %d, want %d (%v)", len(slots), tt.wantCount, slots)
			}
			if slots[0] != tt.wantFirst {
				t.Errorf("first slot = %s, want %s", slots[0], tt.wantFirst)
			}
			if slots[len(slots)-1] != tt.wantLast {
				t.Errorf("last slot = %s, want %s", slots[len(slots)-1], tt.wantLast)
			}
			if day.SlotCount() != tt.wantCount {
				t.Errorf("SlotCount = %d, want %d", day.SlotCount(), tt.wantCount)
			}
		})
	}
}

func TestWorkdaySlotsOrdered(t *testing.T) {
	day, err := NewWorkday("09:00", "20:00", 60)
	if err != nil {
		t.Fatal(err)
	}
	slots := day.BaseSlots()
	for i := 1; i < len(slots); i++ {
		if slots[i-1] >= slots[i] {
			t.Fatalf("slots out of order: %s before %s", slots[i-1], slots[i])
		}
	}
}

func TestWorkdayBaseSlotsCopy(t *testing.T) {
	day, err := NewWorkday("09:00", "11:00", 60)
	if err != nil {
		t.Fatal(err)
	}
	slots := day.BaseSlots()
	slots[0] = "corrupted"
	if day.BaseSlots()[0] != "09:00" {
		t.Error("BaseSlots must return a copy")
	}
}

func TestWorkdayContains(t *testing.T) {
	day, err := NewWorkday("09:00", "20:00", 60)
	if err != nil {
		t.Fatal(err)
	}
	if !day.Contains("09:00") || !day.Contains("20:00") {
		t.Error("grid boundaries must be bookable")
	}
	if day.Contains("08:00") || day.Contains("21:00") || day.Contains("09:30") {
		t.Error("off-grid times must not be contained")
	}
}

func TestWorkdaySlotTime(t *testing.T) {
	day, err := NewWorkday("09:00", "20:00", 60)
	if err != nil {
		t.Fatal(err)
	}
	date := time.Date(2025, 3, 10, 15, 42, 7, 0, time.UTC)
	got, err := day.SlotTime(date, "14:00")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("SlotTime = %v, want %v", got, want)
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:00", want: 9 * time.Hour},
		{in: "23:59", want: 23*time.Hour + 59*time.Minute},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12", wantErr: true},
		{in: "ab:cd", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
