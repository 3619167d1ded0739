package notification

import (
	"strings"

	"goalmateAPI/internal/types/notification"
)

// template returns the message template for a notification type. The set is
// closed; anything else gets an empty message instead of an error.
func template(t notification.Type) string {
	switch t {
	case notification.TypeSupport:
		return "[username] is supporting you"
	case notification.TypeUnsupport:
		return "[username] is no longer supporting you"
	case notification.TypeCheers:
		return "[username] is cheers on your goal"
	case notification.TypeComment:
		return "[username] is commenting on your goal"
	case notification.TypeCommentReplied:
		return "[username] replied to your comment"
	case notification.TypeGoalFailed:
		return "You failed to achieve your goal"
	default:
		return ""
	}
}

// Render builds the message for a notification type. Each payload token
// (e.g. "[username]") is substituted by literal, case-sensitive string
// replacement, first occurrence only. Templates use each token once.
func Render(t notification.Type, payload map[string]string) string {
	msg := template(t)
	if msg == "" {
		return ""
	}
	for token, value := range payload {
		msg = strings.Replace(msg, token, value, 1)
	}
	return msg
}
