package core

import (
	"sync"
	"time"
)

// BanPolicy configures how long an offending sender is banned and how
// many rejects within a rolling window trigger a spam ban. Defaults
// mirror the reference implementation's BanPolicy
// (low_fee_ban_s=30, spam_ban_s=120, window_s=10, max_rejects_in_window=5).
type BanPolicy struct {
	LowFeeBan          time.Duration
	SpamBan            time.Duration
	Window             time.Duration
	MaxRejectsInWindow int
}

// DefaultBanPolicy matches the reference mempool's defaults.
func DefaultBanPolicy() BanPolicy {
	return BanPolicy{
		LowFeeBan:          30 * time.Second,
		SpamBan:            120 * time.Second,
		Window:             10 * time.Second,
		MaxRejectsInWindow: 5,
	}
}

// banState tracks one sender's rolling reject window and any active ban
// expiry, mirroring the reference BanState dataclass.
type banState struct {
	bannedUntil   time.Time
	windowStart   time.Time
	rejectsInWin  int
}

// Banlist is the mempool's admission-time reject tracker. A single
// sync.Mutex guards the whole map, following the teacher's
// AccessController (core/access_control.go) rather than sharding, since
// ban-check is called on every admission attempt and the hot path favors
// one short critical section over per-shard lock overhead at this scale.
type Banlist struct {
	mu     sync.Mutex
	policy BanPolicy
	states map[string]*banState
}

func NewBanlist(policy BanPolicy) *Banlist {
	return &Banlist{
		policy: policy,
		states: make(map[string]*banState),
	}
}

// IsBanned reports whether addr is currently under an active ban at time
// now.
func (b *Banlist) IsBanned(addr Address, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.states[addr.Key()]
	if !ok {
		return false
	}
	return now.Before(st.bannedUntil)
}

// BanForLowFee places addr under a low-fee ban for policy.LowFeeBan,
// never shortening a longer ban already in force. Mempool.Admit does not
// call it: a fee-floor rejection only counts toward RecordReject.
func (b *Banlist) BanForLowFee(addr Address, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.stateFor(addr)
	until := now.Add(b.policy.LowFeeBan)
	if until.After(st.bannedUntil) {
		st.bannedUntil = until
	}
}

// BanForSpam places addr under the longer spam ban, the same ban
// RecordReject applies when it trips MaxRejectsInWindow.
func (b *Banlist) BanForSpam(addr Address, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.stateFor(addr)
	until := now.Add(b.policy.SpamBan)
	if until.After(st.bannedUntil) {
		st.bannedUntil = until
	}
}

// RecordReject records one admission rejection for addr at time now. If
// the rolling window has elapsed since it last reset, it resets first;
// once the reject count in the current window reaches
// policy.MaxRejectsInWindow it escalates to a spam ban and returns true.
func (b *Banlist) RecordReject(addr Address, now time.Time) (spamBanned bool) {
	b.mu.Lock()
	st := b.stateFor(addr)
	if st.windowStart.IsZero() || now.Sub(st.windowStart) > b.policy.Window {
		st.windowStart = now
		st.rejectsInWin = 0
	}
	st.rejectsInWin++
	trip := st.rejectsInWin >= b.policy.MaxRejectsInWindow
	if trip {
		until := now.Add(b.policy.SpamBan)
		if until.After(st.bannedUntil) {
			st.bannedUntil = until
		}
	}
	b.mu.Unlock()
	return trip
}

// stateFor returns addr's banState, creating it if absent. Callers must
// hold b.mu.
func (b *Banlist) stateFor(addr Address) *banState {
	key := addr.Key()
	st, ok := b.states[key]
	if !ok {
		st = &banState{}
		b.states[key] = st
	}
	return st
}

// Prune removes ban state for senders whose ban has long expired and who
// have no recent reject-window activity, bounding the map's memory under
// sustained churn. It mirrors the teacher's reaper() ticker pattern
// (core/connection_pool.go) but is invoked synchronously by the caller's
// maintenance loop rather than a background goroutine, since ban state
// has no network I/O to amortize.
func (b *Banlist) Prune(now time.Time, idleFor time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for key, st := range b.states {
		idleSince := st.windowStart
		if st.bannedUntil.After(idleSince) {
			idleSince = st.bannedUntil
		}
		if now.Sub(idleSince) > idleFor {
			delete(b.states, key)
		}
	}
}
