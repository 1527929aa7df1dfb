//go:build !linux && !darwin

package identity

import "time"

func birthTime(string) (time.Time, bool) {
	return time.Time{}, false
}
