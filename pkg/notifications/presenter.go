package notifications

import "net/url"

// FailureMessage is shown once the push connection is given up.
const FailureMessage = "Unable to establish notification connection. Please refresh the page."

// Presenter renders notification state. Calls come from the push goroutine
// and from Manager callers, so implementations must be safe for concurrent use.
type Presenter interface {
	// Toast shows a transient popup for a newly pushed notification.
	Toast(n Notification)
	// Badge shows the unread count; zero hides it.
	Badge(unread int)
	// Panel renders the list of notifications, newest first.
	Panel(items []Notification)
	// Banner shows a fatal, non-dismissable error.
	Banner(message string)
	// RedirectToLogin sends the user to the login page, returning to next afterwards.
	RedirectToLogin(next string)
}

// LoginURL builds the login redirect target for next.
func LoginURL(next string) string {
	if next == "" {
		next = "/"
	}
	return "/login/?next=" + url.QueryEscape(next)
}
