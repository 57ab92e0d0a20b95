// client.go wraps the Docker Engine SDK client for the docker execution
// backend. It handles automatic socket detection across platforms and
// daemon reachability checks; everything container-specific lives in
// docker.go and containers.go.
package executor

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime"
	"time"

	"github.com/docker/docker/client"

	"github.com/convoy-run/convoy/internal/model"
)

// pingTimeout is the maximum wait for a Docker daemon response during
// Ping. Docker Desktop on macOS can be noticeably slower than a native
// Linux daemon, hence the generous value.
const pingTimeout = 5 * time.Second

// Client wraps the Docker SDK client. The wrapper keeps the exposed API
// surface small and attaches convoy's exit-code semantics to connection
// failures.
type Client struct {
	inner *client.Client
}

// NewClient creates a Docker client with automatic socket detection.
//
// Detection priority:
//  1. DOCKER_HOST environment variable, used as-is when set.
//  2. Platform default socket paths (Linux/macOS unix sockets, the
//     Windows named pipe).
//
// Returns a model.CLIError with ExitDockerNotRunning when no socket is
// found or the client cannot be created.
func NewClient() (*Client, error) {
	if host := os.Getenv("DOCKER_HOST"); host != "" {
		return newClientWithHost(host)
	}

	host, err := detectDockerHost()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitDockerNotRunning, "Docker socket not found", err)
	}
	return newClientWithHost(host)
}

// newClientWithHost connects to a specific Docker host string, e.g.
// "unix:///var/run/docker.sock". API version negotiation keeps the
// client compatible across daemon versions.
func newClientWithHost(host string) (*Client, error) {
	c, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create Docker client for host %q", host),
			err,
		)
	}
	return &Client{inner: c}, nil
}

// detectDockerHost probes the known socket locations for the current
// platform and returns the first that exists. Existence does not
// guarantee a listening daemon; Ping verifies that.
func detectDockerHost() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return detectUnixSocket([]string{"/var/run/docker.sock"})

	case "darwin":
		// Docker Desktop symlinks /var/run/docker.sock; newer versions
		// may only create the per-user socket.
		paths := []string{"/var/run/docker.sock"}
		if home, err := os.UserHomeDir(); err == nil {
			paths = append(paths, home+"/.docker/run/docker.sock")
		}
		return detectUnixSocket(paths)

	case "windows":
		// The named pipe cannot be os.Stat'ed; a brief dial probes it.
		pipePath := `//./pipe/docker_engine`
		conn, err := net.DialTimeout("pipe", pipePath, 1*time.Second)
		if err == nil {
			conn.Close()
			return "npipe://" + pipePath, nil
		}
		return "", fmt.Errorf("Docker named pipe not found at %s: %w", pipePath, err)

	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// detectUnixSocket returns the Docker host URI for the first socket path
// that exists, checked in preference order.
func detectUnixSocket(paths []string) (string, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return "unix://" + path, nil
		}
	}
	return "", fmt.Errorf("Docker socket not found at any of: %v — is Docker running?", paths)
}

// Ping verifies the Docker daemon is reachable, waiting up to
// pingTimeout for a response.
func (c *Client) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.inner.Ping(pingCtx); err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			"Docker daemon is not responding — is Docker running?",
			err,
		)
	}
	return nil
}

// Close releases the client's resources. Safe to call multiple times.
func (c *Client) Close() error {
	if c.inner != nil {
		return c.inner.Close()
	}
	return nil
}

// Inner exposes the underlying SDK client for operations the wrapper
// does not cover.
func (c *Client) Inner() *client.Client {
	return c.inner
}
