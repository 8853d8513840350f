package helpers

import (
	"strings"
	"time"

	"github.com/hako/durafmt"
)

func AppendSlashUrl(url string) string {
	if url == "" {
		return "/"
	}
	if !strings.HasSuffix(url, "/") {
		return url + "/"
	}
	return url
}

// MakeUrlWithPort joins url and port and ends the result with a slash. An
// empty port leaves url as is.
func MakeUrlWithPort(url string, port string) string {
	if port == "" {
		return AppendSlashUrl(url)
	}
	return AppendSlashUrl(strings.TrimSuffix(url, "/") + ":" + port)
}

// HumanDuration renders d with its two largest units, e.g. "1 minute 5 seconds".
func HumanDuration(d time.Duration) string {
	if d < time.Microsecond {
		return "0 microseconds"
	}
	return durafmt.Parse(d).LimitFirstN(2).String()
}

// Since is HumanDuration of the time elapsed since t, or "never" for a zero t.
func Since(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return HumanDuration(time.Since(t))
}
