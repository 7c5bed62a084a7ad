package livesystem

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hamed0406/livestatus/internal/probe"
)

// dnsCooldown is how long a host is left alone after a diagnosis started.
const dnsCooldown = 30 * time.Second

// dnsDiagnoser bounds DNS lookups made on behalf of failing probes. It is shared by
// every panel, so an outage hit by many page loads resolves each host at most once
// per cooldown.
type dnsDiagnoser struct {
	check    func(ctx context.Context, host string) probe.DNSStatus
	cooldown time.Duration
	group    singleflight.Group

	mu   sync.Mutex
	last map[string]time.Time
}

func newDNSDiagnoser(cooldown time.Duration, check func(context.Context, string) probe.DNSStatus) *dnsDiagnoser {
	return &dnsDiagnoser{check: check, cooldown: cooldown, last: make(map[string]time.Time)}
}

var sharedDNS = newDNSDiagnoser(dnsCooldown, probe.CheckDNS)

// claim reports whether host may be diagnosed at now, and if so starts its cooldown.
func (d *dnsDiagnoser) claim(host string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.last[host]; ok && now.Sub(t) < d.cooldown {
		return false
	}
	d.last[host] = now
	return true
}

// lookup resolves host once for all concurrent callers.
func (d *dnsDiagnoser) lookup(host string) probe.DNSStatus {
	v, _, _ := d.group.Do(host, func() (any, error) {
		return d.check(context.Background(), host), nil
	})
	return v.(probe.DNSStatus)
}
