package ratelimit

import "fmt"

// KeyForUser builds the limiter key for an authenticated user.
func KeyForUser(userID uint64) string {
	if userID == 0 {
		return ""
	}
	return fmt.Sprintf("u:%d", userID)
}
