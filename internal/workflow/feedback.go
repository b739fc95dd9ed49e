package workflow

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"rewriter-cli/internal/model"
)

// DefaultNotificationTTL is how long a notification stays up before removing itself.
const DefaultNotificationTTL = 3000 * time.Millisecond

// AfterFunc schedules f after d, like time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

func realAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Notifier shows transient notifications. Each one is independent: no dedup, no
// queueing, and each removes itself after ttl.
type Notifier struct {
	mu     sync.Mutex
	view   View
	ttl    time.Duration
	after  AfterFunc
	now    func() time.Time
	active []Notification

	// onNotify observes every notification (activity log).
	onNotify func(Notification)
}

func NewNotifier(view View, ttl time.Duration, after AfterFunc) *Notifier {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	if after == nil {
		after = realAfterFunc
	}
	return &Notifier{view: view, ttl: ttl, after: after, now: time.Now}
}

func (n *Notifier) Notify(message string, sev model.Severity) Notification {
	note := Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  sev.Normalize(),
		CreatedAt: n.now(),
	}

	n.mu.Lock()
	n.active = append(n.active, note)
	n.view.ShowNotification(note)
	hook := n.onNotify
	n.mu.Unlock()

	if hook != nil {
		hook(note)
	}
	// Scheduled outside the lock: a synchronous AfterFunc must be able to remove.
	n.after(n.ttl, func() { n.Remove(note.ID) })
	return note
}

// Remove takes a notification down. Removing one that is already gone is a no-op.
func (n *Notifier) Remove(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, note := range n.active {
		if note.ID != id {
			continue
		}
		n.active = append(n.active[:i], n.active[i+1:]...)
		n.view.RemoveNotification(id)
		return true
	}
	return false
}

func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.active...)
}

// Loading is the single shared blocking overlay, reference counted. The overlay
// is visible while at least one acquisition is outstanding; later acquisitions
// replace the message instead of stacking a second overlay.
type Loading struct {
	mu      sync.Mutex
	view    View
	depth   int
	gen     int
	message string
}

func NewLoading(view View) *Loading {
	return &Loading{view: view}
}

// Acquire shows the overlay and returns its release. Calling release more than
// once has no further effect.
func (l *Loading) Acquire(message string) (release func()) {
	l.mu.Lock()
	l.depth++
	l.message = message
	gen := l.gen
	l.view.ShowLoading(message)
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { l.release(gen) })
	}
}

func (l *Loading) release(gen int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	// A forced Hide started a new generation; stale releases must not touch it.
	if gen != l.gen || l.depth == 0 {
		return
	}
	l.depth--
	if l.depth == 0 {
		l.message = ""
		l.view.HideLoading()
	}
}

// Hide forces the overlay off. Safe when nothing is shown.
func (l *Loading) Hide() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.depth == 0 {
		return
	}
	l.depth = 0
	l.gen++
	l.message = ""
	l.view.HideLoading()
}

func (l *Loading) Visible() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.depth > 0
}

func (l *Loading) Message() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.message
}
