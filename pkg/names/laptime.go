package names

import (
	"fmt"
	"time"
)

// FormatLapTime renders milliseconds as m:ss.mmm, or ss.mmm below one minute.
// Zero renders as 0.000.
func FormatLapTime(ms int64) string {
	if ms < 0 {
		return "-" + FormatLapTime(-ms)
	}
	if ms == 0 {
		return "0.000"
	}
	minutes := ms / 60000
	seconds := (ms / 1000) % 60
	millis := ms % 1000
	if minutes != 0 {
		return fmt.Sprintf("%d:%02d.%03d", minutes, seconds, millis)
	}
	return fmt.Sprintf("%02d.%03d", seconds, millis)
}

// FormatSeconds renders a sector time given in seconds with millisecond precision.
func FormatSeconds(s float64) string {
	return FormatLapTime(time.Duration(s * float64(time.Second)).Round(time.Millisecond).Milliseconds())
}

// FormatRemaining renders the remaining session time as "MM min SSs".
func FormatRemaining(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d min %02ds", int(d.Minutes())%60, int(d.Seconds())%60)
}
