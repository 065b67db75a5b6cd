// Package route provides the production RouteInfoProvider: it asks the
// system routing table which local address reaches a public IP.
package route

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/projenv-dev/projenv/internal/logging"
)

// DefaultProbeAddr is a well-known public address used only for route
// selection; no traffic is sent to it.
const DefaultProbeAddr = "1.1.1.1"

// DefaultTimeout bounds the external route query.
const DefaultTimeout = 3 * time.Second

// IPRouteProvider shells out to "ip route get" to find the outbound source
// address. A missing tool or unparsable output is absence, not an error.
type IPRouteProvider struct {
	ProbeAddr string        // defaults to DefaultProbeAddr
	Timeout   time.Duration // defaults to DefaultTimeout
}

// OutboundIP returns the source address of the route to the probe address,
// or "" when the routing tool is unavailable.
func (p *IPRouteProvider) OutboundIP(ctx context.Context) (string, error) {
	addr := p.ProbeAddr
	if addr == "" {
		addr = DefaultProbeAddr
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "ip", "-4", "route", "get", addr).CombinedOutput()
	if err != nil {
		logging.FromContext(ctx).Debug(ctx, "route query failed", "error", err)
		return "", nil
	}
	return parseSrc(string(out)), nil
}

// parseSrc extracts the token following "src" from ip route output, e.g.
// "1.1.1.1 via 10.0.0.1 dev eth0 src 10.0.0.5 uid 1000".
func parseSrc(out string) string {
	fields := strings.Fields(out)
	for i, f := range fields {
		if f == "src" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return ""
}
