package route

import (
	"context"
	"testing"
	"time"
)

func TestParseSrc(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want string
	}{
		{
			name: "typical route output",
			out:  "1.1.1.1 via 10.0.0.1 dev eth0 src 10.0.0.5 uid 1000\n    cache\n",
			want: "10.0.0.5",
		},
		{
			name: "directly connected",
			out:  "1.1.1.1 dev wlan0 src 192.168.1.20 uid 1000",
			want: "192.168.1.20",
		},
		{
			name: "no src token",
			out:  "1.1.1.1 via 10.0.0.1 dev eth0",
			want: "",
		},
		{
			name: "src at end of output",
			out:  "1.1.1.1 dev eth0 src",
			want: "",
		},
		{
			name: "empty output",
			out:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseSrc(tt.out); got != tt.want {
				t.Errorf("parseSrc(%q) = %q, want %q", tt.out, got, tt.want)
			}
		})
	}
}

func TestOutboundIPMissingTool(t *testing.T) {
	// An unreachable probe binary must degrade to absence, not an error.
	p := &IPRouteProvider{ProbeAddr: "1.1.1.1", Timeout: time.Second}
	t.Setenv("PATH", t.TempDir())

	ip, err := p.OutboundIP(context.Background())
	if err != nil {
		t.Fatalf("OutboundIP() error: %v", err)
	}
	if ip != "" {
		t.Errorf("OutboundIP() = %q, want empty", ip)
	}
}
