package dns

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
	"github.com/rs/zerolog"
)

// Config holds DNS resolver configuration.
type Config struct {
	Servers []string
	Timeout time.Duration
}

// Resolver answers "does this hostname currently have an address record"
// via A lookups against a list of DNS servers, with a stdlib fallback.
type Resolver struct {
	servers     []string
	timeout     time.Duration
	client      *dns.Client
	fallbackNet bool
	logger      zerolog.Logger
}

// NewResolver creates a resolver. With no explicit servers it prefers the
// system resolv.conf entries and falls back to well-known public servers.
func NewResolver(config Config, logger zerolog.Logger) *Resolver {
	servers := config.Servers
	if len(servers) == 0 {
		servers = []string{
			"8.8.8.8:53",
			"8.8.4.4:53",
			"1.1.1.1:53",
			"1.0.0.1:53",
		}
		if cc, err := dns.ClientConfigFromFile("/etc/resolv.conf"); err == nil && len(cc.Servers) > 0 {
			var system []string
			for _, s := range cc.Servers {
				port := cc.Port
				if port == "" {
					port = "53"
				}
				system = append(system, net.JoinHostPort(s, port))
			}
			servers = append(system, servers...)
		}
	}

	return &Resolver{
		servers: servers,
		timeout: config.Timeout,
		client: &dns.Client{
			Timeout: config.Timeout,
		},
		fallbackNet: true,
		logger:      logger.With().Str("component", "dns").Logger(),
	}
}

// Lookup resolves the A records of a hostname. It tries each configured
// server in turn and returns an error when no server yields an address.
func (r *Resolver) Lookup(ctx context.Context, hostname string) ([]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(hostname), dns.TypeA)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range r.servers {
		lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
		resp, _, err := r.client.ExchangeContext(lookupCtx, msg, server)
		cancel()

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil || resp == nil {
			lastErr = err
			continue
		}
		if resp.Rcode != dns.RcodeSuccess {
			lastErr = fmt.Errorf("%s: %s", hostname, dns.RcodeToString[resp.Rcode])
			continue
		}

		var ips []string
		for _, answer := range resp.Answer {
			if a, ok := answer.(*dns.A); ok {
				ips = append(ips, a.A.String())
			}
		}
		if len(ips) > 0 {
			return ips, nil
		}
		lastErr = fmt.Errorf("%s: no address records", hostname)
	}

	if r.fallbackNet {
		if ips, err := r.lookupFallback(ctx, hostname); err == nil && len(ips) > 0 {
			return ips, nil
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%s: no response from any DNS server", hostname)
	}
	return nil, lastErr
}

// lookupFallback uses the stdlib resolver when every direct query failed.
func (r *Resolver) lookupFallback(ctx context.Context, hostname string) ([]string, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resolver := &net.Resolver{}
	ips, err := resolver.LookupIP(lookupCtx, "ip4", hostname)
	if err != nil {
		return nil, err
	}

	result := make([]string, len(ips))
	for i, ip := range ips {
		result[i] = ip.String()
	}
	return result, nil
}
