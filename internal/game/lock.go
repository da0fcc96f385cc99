package game

import (
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"k8s.io/klog/v2"
)

// LockKeypad is the set of pictures shown on the login keypad.
var LockKeypad = []string{
	"🐱", "🦁", "🐶",
	"🍎", "🚀", "🏎️",
	"🍭", "🍪", "⚽",
}

// LockStatus is the state of a Lock.
type LockStatus int

const (
	LockEntering  LockStatus = iota // Waiting for more presses.
	LockFailed                      // Wrong sequence, input is cleared after LockResetDelay.
	LockUnlocking                   // Right sequence, unlocks after UnlockDelay.
	LockUnlocked
)

func (s LockStatus) String() string {
	switch s {
	case LockEntering:
		return "Entering"
	case LockFailed:
		return "Failed"
	case LockUnlocking:
		return "Unlocking"
	case LockUnlocked:
		return "Unlocked"
	default:
		return "Unknown"
	}
}

// Lock is the picture-sequence gate shown before the app: the child must press the pictures of a
// randomly chosen target sequence in order. It is a novelty, not a security boundary.
type Lock struct {
	mu       sync.Mutex
	timing   Timing
	keypad   []string
	target   []string
	input    []string
	status   LockStatus
	token    uint64
	timer    *time.Timer
	onChange func(LockStatus)
	rng      *rand.Rand
}

// NewLock creates a Lock over the keypad with a random target of length distinct pictures.
// The length is clamped to the keypad size. The rng may be nil. onChange, if not nil, is called
// on every status change (including deferred ones, from a timer goroutine).
func NewLock(keypad []string, length int, timing Timing, rng *rand.Rand, onChange func(LockStatus)) *Lock {
	l := &Lock{
		timing:   timing,
		keypad:   slices.Clone(keypad),
		onChange: onChange,
		rng:      rng,
	}
	l.target = l.pickTarget(length)
	return l
}

func (l *Lock) pickTarget(length int) []string {
	length = min(max(length, 1), len(l.keypad))
	perm := slices.Clone(l.keypad)
	shuffle := rand.Shuffle
	if l.rng != nil {
		shuffle = l.rng.Shuffle
	}
	shuffle(len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
	return perm[:length]
}

// Press records a press on the keypad picture item. It returns false if the press was ignored:
// unknown picture, sequence already complete, or lock already unlocking/unlocked.
func (l *Lock) Press(item string) bool {
	l.mu.Lock()
	if l.status != LockEntering || len(l.input) >= len(l.target) || !slices.Contains(l.keypad, item) {
		l.mu.Unlock()
		return false
	}
	l.input = append(l.input, item)
	if len(l.input) < len(l.target) {
		l.mu.Unlock()
		return true
	}

	token := l.token
	var status LockStatus
	if slices.Equal(l.input, l.target) {
		status = LockUnlocking
		l.timer = time.AfterFunc(l.timing.UnlockDelay, func() { l.finish(token) })
	} else {
		status = LockFailed
		l.timer = time.AfterFunc(l.timing.LockResetDelay, func() { l.finish(token) })
	}
	l.status = status
	klog.V(1).Infof("Lock: sequence complete, status %s", status)
	l.mu.Unlock()

	l.notify(status)
	return true
}

// finish applies the deferred transition of a complete sequence.
func (l *Lock) finish(token uint64) {
	l.mu.Lock()
	if token != l.token {
		l.mu.Unlock()
		return
	}
	l.timer = nil
	switch l.status {
	case LockUnlocking:
		l.status = LockUnlocked
	case LockFailed:
		l.status = LockEntering
		l.input = nil
	}
	status := l.status
	l.mu.Unlock()

	l.notify(status)
}

func (l *Lock) notify(status LockStatus) {
	if l.onChange != nil {
		l.onChange(status)
	}
}

// Reset locks again with a fresh random target, e.g. on logout.
func (l *Lock) Reset() {
	l.mu.Lock()
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.token++
	l.input = nil
	l.status = LockEntering
	l.target = l.pickTarget(len(l.target))
	l.mu.Unlock()

	l.notify(LockEntering)
}

// Status returns the current status.
func (l *Lock) Status() LockStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Target returns the sequence to be entered.
func (l *Lock) Target() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.target)
}

// Input returns the pictures pressed so far.
func (l *Lock) Input() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.input)
}

// Keypad returns the pictures that can be pressed.
func (l *Lock) Keypad() []string {
	return slices.Clone(l.keypad)
}
