package domain

import "time"

// Notification is a message pushed asynchronously to a session's outbound
// queue. Room broadcasts and direct messages share the same shape; the
// recipient distinguishes them only by content.
type Notification struct {
	From string
	Text string
	At   time.Time
}
