package credentials

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// QuotaChecker reports how many characters an API key may still synthesize.
type QuotaChecker interface {
	Remaining(ctx context.Context, apiKey string) (int, error)
}

// Credential is a point-in-time view of one key in the pool.
type Credential struct {
	// ID is the zero-based position of the key in configured order.
	ID    int
	Key   string
	Label string
	// Remaining is meaningful only when Known is true.
	Remaining int
	Known     bool
	// Blocked credentials were rejected by the provider and are skipped for the rest of the run.
	Blocked bool
}

// QuotaResult pairs a refreshed credential with the error that left it unknown, if any.
type QuotaResult struct {
	Credential Credential
	Err        error
}

// Pool holds the credentials for a single run. It is safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	entries []Credential
}

// NewPool builds a pool from keys in the order given. Blank keys are skipped.
// Every credential starts with unknown quota.
func NewPool(keys []string) *Pool {
	p := &Pool{}
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		id := len(p.entries)
		p.entries = append(p.entries, Credential{ID: id, Key: key, Label: Label(id, key)})
	}
	return p
}

// Len returns the number of credentials in the pool.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Snapshot returns a copy of every credential in configured order.
func (p *Pool) Snapshot() []Credential {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Credential(nil), p.entries...)
}

// Get returns the credential with the given ID.
func (p *Pool) Get(id int) (Credential, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id < 0 || id >= len(p.entries) {
		return Credential{}, false
	}
	return p.entries[id], true
}

// CheckQuota asks the provider for one credential's remaining quota and
// records it. A failed check marks the quota unknown, which makes the
// credential ineligible, and returns the error for the caller to log.
func (p *Pool) CheckQuota(ctx context.Context, checker QuotaChecker, id int) (Credential, error) {
	cred, ok := p.Get(id)
	if !ok {
		return Credential{}, fmt.Errorf("credentials: unknown id %d", id)
	}
	remaining, err := checker.Remaining(ctx, cred.Key)

	p.mu.Lock()
	defer p.mu.Unlock()
	entry := &p.entries[id]
	if err != nil {
		entry.Known = false
		entry.Remaining = 0
		return *entry, err
	}
	entry.Known = true
	entry.Remaining = max(remaining, 0)
	return *entry, nil
}

// Refresh checks every credential in order. Individual failures never abort
// the refresh; they are reported per credential.
func (p *Pool) Refresh(ctx context.Context, checker QuotaChecker) []QuotaResult {
	results := make([]QuotaResult, 0, p.Len())
	for id := 0; id < p.Len(); id++ {
		if err := ctx.Err(); err != nil {
			cred, _ := p.Get(id)
			results = append(results, QuotaResult{Credential: cred, Err: err})
			continue
		}
		cred, err := p.CheckQuota(ctx, checker, id)
		results = append(results, QuotaResult{Credential: cred, Err: err})
	}
	return results
}

// Select returns the first credential, in configured order, whose known
// quota covers required characters. Blocked credentials and IDs in exclude
// are skipped. It does not modify quota.
func (p *Pool) Select(required int, exclude map[int]bool) (Credential, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.selectLocked(required, exclude)
	if idx < 0 {
		return Credential{}, false
	}
	return p.entries[idx], true
}

// Consume subtracts chars from a credential's quota after a confirmed synthesis.
func (p *Pool) Consume(id, chars int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id < 0 || id >= len(p.entries) {
		return fmt.Errorf("credentials: unknown id %d", id)
	}
	entry := &p.entries[id]
	if !entry.Known {
		return fmt.Errorf("credentials: %s has unknown quota", entry.Label)
	}
	if chars > entry.Remaining {
		return fmt.Errorf("credentials: %s has %d characters left, cannot consume %d", entry.Label, entry.Remaining, chars)
	}
	entry.Remaining -= chars
	return nil
}

// Reserve selects and decrements in one critical section, for callers that
// synthesize chunks concurrently. Pair a failed synthesis with Release.
func (p *Pool) Reserve(required int, exclude map[int]bool) (Credential, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.selectLocked(required, exclude)
	if idx < 0 {
		return Credential{}, false
	}
	p.entries[idx].Remaining -= required
	return p.entries[idx], true
}

// Release returns characters taken by Reserve.
func (p *Pool) Release(id, chars int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id < 0 || id >= len(p.entries) || !p.entries[id].Known {
		return
	}
	p.entries[id].Remaining += chars
}

// Block excludes a credential from every later selection in this run.
func (p *Pool) Block(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id >= 0 && id < len(p.entries) {
		p.entries[id].Blocked = true
	}
}

// TotalRemaining sums known quota across unblocked credentials.
func (p *Pool) TotalRemaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, e := range p.entries {
		if e.Known && !e.Blocked {
			total += e.Remaining
		}
	}
	return total
}

func (p *Pool) selectLocked(required int, exclude map[int]bool) int {
	for i, e := range p.entries {
		if !e.Known || e.Blocked || exclude[e.ID] {
			continue
		}
		if e.Remaining >= required {
			return i
		}
	}
	return -1
}
