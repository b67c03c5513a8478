package gitremote

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	githttptransport "github.com/go-git/go-git/v5/plumbing/transport/client"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/rs/dnscache"
)

var (
	installDNSCacheOnce sync.Once
	httpClientTimeout   = 5 * time.Minute
)

// SetHTTPTimeout overrides the HTTP client timeout used for all git
// operations over http/https. Must be called before the first git
// operation in the process (typically at startup, from configuration),
// since the client is installed once and reused for the process lifetime.
func SetHTTPTimeout(d time.Duration) {
	httpClientTimeout = d
}

// installDNSCacheTransport registers an http/https client whose dialer
// resolves hosts through a refreshing DNS cache, so repeated clones and
// fetches against the same source host don't pay a fresh lookup each
// time. Installed once per process, on the first git operation, since
// go-git's client registry is itself process-global and SetHTTPTimeout
// needs the chance to run first.
func installDNSCacheTransport() {
	installDNSCacheOnce.Do(func() {
		resolver := &dnscache.Resolver{}
		go refreshDNSCache(resolver)

		dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
		transport := &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				host, port, err := net.SplitHostPort(addr)
				if err != nil {
					return nil, err
				}
				ips, err := resolver.LookupHost(ctx, host)
				if err != nil {
					return nil, err
				}
				var lastErr error
				for _, ip := range ips {
					conn, dialErr := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
					if dialErr == nil {
						return conn, nil
					}
					lastErr = dialErr
				}
				return nil, lastErr
			},
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: time.Second,
		}

		client := &http.Client{Transport: transport, Timeout: httpClientTimeout}
		githttptransport.InstallProtocol("http", githttp.NewClient(client))
		githttptransport.InstallProtocol("https", githttp.NewClient(client))
	})
}

func refreshDNSCache(resolver *dnscache.Resolver) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		resolver.Refresh(true)
	}
}
