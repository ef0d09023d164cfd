package config

import (
	"testing"
	"time"
)

func TestDurationField(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		value   string
		want    time.Duration
		wantErr bool
	}{
		{name: "empty means unset", value: "", want: 0},
		{name: "spaces only", value: "  ", want: 0},
		{name: "plain", value: "1h30m", want: 90 * time.Minute},
		{name: "explicit zero", value: "0s", want: 0},
		{name: "garbage", value: "soon", wantErr: true},
		{name: "negative", value: "-5m", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DurationField("reminder.hour_before", tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("DurationField(%q): %v", tt.value, err)
			}
			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDurationFieldOr(t *testing.T) {
	t.Parallel()
	got, err := DurationFieldOr("notifier.dedup_window", "", 24*time.Hour)
	if err != nil || got != 24*time.Hour {
		t.Fatalf("unset: got %v, %v", got, err)
	}
	got, err = DurationFieldOr("notifier.dedup_window", "6h", 24*time.Hour)
	if err != nil || got != 6*time.Hour {
		t.Fatalf("set: got %v, %v", got, err)
	}
	if _, err := DurationFieldOr("notifier.dedup_window", "later", time.Hour); err == nil {
		t.Fatal("expected error for invalid value")
	}
}

func TestDecodeConfigTrailingData(t *testing.T) {
	t.Parallel()
	if _, err := decodeConfig("config.json", []byte(`{"logging":{"level":"info","console":true,"file":{"enabled":false,"path":""}}}{"extra":1}`)); err == nil {
		t.Fatal("expected error for trailing document")
	}
}
