package data

import (
	"strings"
	"time"
)

// Fixed UTC+8, so rendering does not depend on the host zone database.
var beijingZone = time.FixedZone("CST", 8*60*60)

const (
	beijingLayout = "2006-01-02 15:04:05"
	weiboLayout   = "Mon Jan 2 15:04:05 -0700 2006"
	isoBareLayout = "2006-01-02T15:04:05"
)

// toBeijingTime normalizes the crawler's created_at shapes to Beijing wall
// clock time. Three input shapes are recognized:
//
//   - ISO 8601, e.g. "2025-12-16T10:00:00Z" (a Z suffix means UTC; without
//     an offset the clock time is taken as Beijing time)
//   - weibo API format, e.g. "Thu Dec 18 08:33:17 +0800 2025"
//   - bare "2006-01-02 15:04:05", assumed to already be Beijing time
//
// Anything else is a parse error; the caller falls back to the raw string.
func toBeijingTime(raw string) (string, error) {
	var t time.Time
	var err error

	switch {
	case strings.Contains(raw, "T"):
		t, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			t, err = time.ParseInLocation(isoBareLayout, raw, beijingZone)
		}
	case strings.Contains(raw, "+") || strings.Count(raw, " ") >= 4:
		t, err = time.Parse(weiboLayout, raw)
	default:
		t, err = time.ParseInLocation(beijingLayout, raw, beijingZone)
	}
	if err != nil {
		return "", err
	}

	return t.In(beijingZone).Format(beijingLayout), nil
}
