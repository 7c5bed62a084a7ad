package livesystem

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/livestatus/internal/health"
	"github.com/hamed0406/livestatus/internal/metrics"
	"github.com/hamed0406/livestatus/internal/probe"
	"github.com/hamed0406/livestatus/internal/transport"
)

const (
	ProfileStatusPath  = "/status"
	ActuatorHealthPath = "/actuator/health"

	ProfileTitle = "Profile Service"
	BFFTitle     = "Frontend BFF Health"

	profileProbeName = "profile_status"
	bffProbeName     = "bff_health"
)

// Panel is one mounted live-system view: two independent hooks, one per backing
// service. Build a new Panel per mount; they share nothing.
type Panel struct {
	log     *zap.Logger
	rec     *metrics.Recorder
	dns     *dnsDiagnoser
	origin  string
	profile *health.Hook[any]
	bff     *health.Hook[ActuatorHealth]

	profileProbe *health.Probe[any]
	bffProbe     *health.Probe[ActuatorHealth]
}

func NewPanel(api, root *transport.Client, log *zap.Logger, rec *metrics.Recorder) *Panel {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Panel{
		log:     log,
		rec:     rec,
		dns:     sharedDNS,
		origin:  root.Origin,
		profile: health.New[any](log),
		bff:     health.New[ActuatorHealth](log),
		profileProbe: health.NewProbe(profileProbeName, func(ctx context.Context) (probe.Timed[any], error) {
			return probe.API[any](ctx, api, ProfileStatusPath)
		}),
		bffProbe: health.NewProbe(bffProbeName, func(ctx context.Context) (probe.Timed[ActuatorHealth], error) {
			return probe.Root[ActuatorHealth](ctx, root, ActuatorHealthPath)
		}),
	}
	p.profile.OnChange(func(st health.State[any]) { p.observe(profileProbeName, st.Loading, st.LatencyMS, st.Failure) })
	p.bff.OnChange(func(st health.State[ActuatorHealth]) { p.observe(bffProbeName, st.Loading, st.LatencyMS, st.Failure) })
	return p
}

// Mount starts both probes. They run concurrently and never wait on each other.
func (p *Panel) Mount(ctx context.Context) {
	p.profile.Use(ctx, p.profileProbe)
	p.bff.Use(ctx, p.bffProbe)
}

// Wait returns once both probes have settled, or with ctx's error when it ends first.
func (p *Panel) Wait(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := p.profile.Wait(gctx)
		return err
	})
	g.Go(func() error {
		_, err := p.bff.Wait(gctx)
		return err
	})
	return g.Wait()
}

// Unmount tears both hooks down; late results are dropped.
func (p *Panel) Unmount() {
	p.profile.Unmount()
	p.bff.Unmount()
}

func (p *Panel) Cards() Cards {
	return Cards{
		Profile: CardFrom(ProfileTitle, p.profile.State(), ClassifyStatusPayload),
		BFF:     CardFrom(BFFTitle, p.bff.State(), BFFStatusLabel),
	}
}

// observe runs under the hook lock, so it only records and hands slow work off.
func (p *Panel) observe(name string, loading bool, latency *int64, failure *transport.HTTPError) {
	switch {
	case loading:
		return
	case failure == nil && latency != nil:
		p.rec.ObserveOK(name, *latency)
	case failure != nil:
		p.rec.ObserveError(name)
		if failure.Status == 0 {
			host := probe.HostOf(p.origin)
			if p.dns.claim(host, time.Now()) {
				go p.diagnoseDNS(name, host, failure.Message)
			}
		}
	}
}

// diagnoseDNS logs how the upstream host resolves when a probe got no response at all.
func (p *Panel) diagnoseDNS(name, host, reason string) {
	dns := p.dns.lookup(host)
	p.log.Info("dns_check",
		zap.String("probe", name),
		zap.String("reason", reason),
		zap.String("host", dns.Host),
		zap.String("class", string(dns.Class)),
		zap.Strings("nameservers", dns.Nameservers),
		zap.String("cname", dns.CNAME),
		zap.String("resolver_error", dns.ResolverError),
	)
}
