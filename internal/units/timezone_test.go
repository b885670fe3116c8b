package units

import (
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	if err != nil || loc != time.UTC {
		t.Fatalf("LoadLocation(\"\") = %v, %v; want UTC", loc, err)
	}

	loc, err = LoadLocation("Europe/London")
	if err != nil {
		t.Fatalf("LoadLocation error: %v", err)
	}
	summer := time.Date(2025, 7, 1, 12, 0, 0, 0, loc)
	if _, off := summer.Zone(); off != 3600 {
		t.Errorf("London summer offset = %d, want 3600", off)
	}

	if _, err := LoadLocation("Invalid/Timezone"); err == nil {
		t.Error("expected error for invalid timezone")
	}
}
