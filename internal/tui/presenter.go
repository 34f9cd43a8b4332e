package tui

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dmitrymomot/notifystream/pkg/notifications"
)

var (
	accent  = lipgloss.Color("#D97706")
	fg      = lipgloss.Color("#E8E6E3")
	dim     = lipgloss.Color("#6B7280")
	success = lipgloss.Color("#22C55E")
	danger  = lipgloss.Color("#EF4444")
	warning = lipgloss.Color("#F59E0B")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(fg)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	dimStyle    = lipgloss.NewStyle().Foreground(dim)
	unreadStyle = lipgloss.NewStyle().Foreground(accent)
	readStyle   = lipgloss.NewStyle().Foreground(dim)
	badgeStyle  = lipgloss.NewStyle().Bold(true).Foreground(warning)
	okStyle     = lipgloss.NewStyle().Foreground(success)
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(danger)
)

var (
	// ErrConnectionLost is reported on Fatal after the failure banner.
	ErrConnectionLost = errors.New("notification connection lost")
	// ErrSessionExpired is reported on Fatal after a login redirect.
	ErrSessionExpired = errors.New("session expired")
)

// Presenter renders notifications as terminal lines. It implements
// notifications.Presenter.
type Presenter struct {
	mu        sync.Mutex
	out       io.Writer
	now       func() time.Time
	loginBase string
	lastBadge int
	fatal     chan error
}

// NewPresenter writes to out. loginBase is prefixed to login redirect
// targets, usually the marketplace base URL.
func NewPresenter(out io.Writer, loginBase string) *Presenter {
	return &Presenter{
		out:       out,
		now:       time.Now,
		loginBase: strings.TrimSuffix(loginBase, "/"),
		lastBadge: -1,
		fatal:     make(chan error, 1),
	}
}

// WithClock replaces time.Now for timestamp rendering.
func (p *Presenter) WithClock(now func() time.Time) *Presenter {
	if now != nil {
		p.now = now
	}
	return p
}

// Fatal receives the first terminal condition: a lost connection or an
// expired session.
func (p *Presenter) Fatal() <-chan error {
	return p.fatal
}

func (p *Presenter) Toast(n notifications.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ts := notifications.FormatTimestamp(n.DisplayTime(), p.now())
	line := unreadStyle.Render("●") + " " + titleStyle.Render(n.DisplayTitle())
	if n.Message != "" {
		line += "  " + n.Message
	}
	if ts != "" {
		line += "  " + dimStyle.Render(ts)
	}
	if n.Link != "" {
		line += "  " + dimStyle.Render(n.Link)
	}
	fmt.Fprintln(p.out, line)
}

// Badge prints the unread count when it changes.
func (p *Presenter) Badge(unread int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if unread == p.lastBadge {
		return
	}
	p.lastBadge = unread
	if unread == 0 {
		fmt.Fprintln(p.out, okStyle.Render("all caught up"))
		return
	}
	fmt.Fprintln(p.out, badgeStyle.Render(fmt.Sprintf("%d unread", unread)))
}

func (p *Presenter) Panel(items []notifications.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	var b strings.Builder
	b.WriteString(headerStyle.Render("Notifications"))
	b.WriteString("\n")
	if len(items) == 0 {
		b.WriteString("  " + dimStyle.Render("No notifications") + "\n")
	}
	for _, n := range items {
		mark := unreadStyle.Render("●")
		if n.IsRead {
			mark = readStyle.Render("○")
		}
		b.WriteString(fmt.Sprintf("  %s %s %s", mark, dimStyle.Render(n.ID.String()), titleStyle.Render(n.DisplayTitle())))
		if n.Message != "" {
			b.WriteString("  " + n.Message)
		}
		if ts := notifications.FormatTimestamp(n.DisplayTime(), now); ts != "" {
			b.WriteString("  " + dimStyle.Render(ts))
		}
		b.WriteString("\n")
	}
	fmt.Fprint(p.out, b.String())
}

func (p *Presenter) Banner(message string) {
	p.mu.Lock()
	fmt.Fprintln(p.out, bannerStyle.Render(message))
	p.mu.Unlock()
	p.report(ErrConnectionLost)
}

func (p *Presenter) RedirectToLogin(next string) {
	p.mu.Lock()
	fmt.Fprintln(p.out, bannerStyle.Render("Session expired. Sign in again at "+p.loginBase+notifications.LoginURL(next)))
	p.mu.Unlock()
	p.report(ErrSessionExpired)
}

func (p *Presenter) report(err error) {
	select {
	case p.fatal <- err:
	default:
	}
}
