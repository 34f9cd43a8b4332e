package notifications

import (
	"slices"
	"sync"
)

// Inbox is the in-memory list of notifications shown in the panel, newest
// first. It never holds two entries with the same id, and UnreadCount always
// equals the number of unread entries.
type Inbox struct {
	items  []Notification
	unread int
	mu     sync.RWMutex
}

func NewInbox() *Inbox {
	return &Inbox{}
}

// Add puts n at the top of the list. It returns false and changes nothing
// when an entry with the same id already exists or the id is empty.
func (b *Inbox) Add(n Notification) bool {
	if n.ID == "" {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.indexOf(n.ID) >= 0 {
		return false
	}
	b.items = slices.Insert(b.items, 0, n)
	if !n.IsRead {
		b.unread++
	}
	return true
}

// Merge folds a list fetched from the server into the inbox and returns how
// many entries were new. Known entries are refreshed, but an entry read
// locally stays read. The result is ordered by creation time, newest first.
func (b *Inbox) Merge(list []Notification) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	added := 0
	for _, n := range list {
		if n.ID == "" {
			continue
		}
		if i := b.indexOf(n.ID); i >= 0 {
			n.IsRead = n.IsRead || b.items[i].IsRead
			b.items[i] = n
			continue
		}
		b.items = append(b.items, n)
		added++
	}

	slices.SortStableFunc(b.items, func(x, y Notification) int {
		return y.CreatedAt.Compare(x.CreatedAt)
	})
	b.recount()
	return added
}

// MarkRead flips the entry to read. It returns true only when an unread
// entry was found, in which case the unread count drops by exactly one.
func (b *Inbox) MarkRead(id ID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(id)
	if i < 0 || b.items[i].IsRead {
		return false
	}
	b.items[i].MarkAsRead()
	b.unread = max(0, b.unread-1)
	return true
}

// MarkAllRead flips every entry and returns how many were unread.
func (b *Inbox) MarkAllRead() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.unread
	for i := range b.items {
		b.items[i].MarkAsRead()
	}
	b.unread = 0
	return n
}

// UnreadCount is the number of entries not yet marked read.
func (b *Inbox) UnreadCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.unread
}

// Len is the number of entries.
func (b *Inbox) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}

// Items returns a copy of the entries, newest first.
func (b *Inbox) Items() []Notification {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.items)
}

// Get returns the entry with the given id.
func (b *Inbox) Get(id ID) (Notification, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if i := b.indexOf(id); i >= 0 {
		return b.items[i], true
	}
	return Notification{}, false
}

// EvictRead drops read entries and returns how many were removed.
func (b *Inbox) EvictRead() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	before := len(b.items)
	b.items = slices.DeleteFunc(b.items, func(n Notification) bool { return n.IsRead })
	return before - len(b.items)
}

// Clear empties the inbox.
func (b *Inbox) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = nil
	b.unread = 0
}

// indexOf must be called with b.mu held.
func (b *Inbox) indexOf(id ID) int {
	return slices.IndexFunc(b.items, func(n Notification) bool { return n.ID == id })
}

func (b *Inbox) recount() {
	b.unread = 0
	for _, n := range b.items {
		if !n.IsRead {
			b.unread++
		}
	}
}
