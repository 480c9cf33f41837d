package topology

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/crypto/ssh"
)

// CommandRunner executes one command on one remote host and returns its
// stdout. Implementations must never echo the password anywhere.
type CommandRunner interface {
	Run(ctx context.Context, host, command string) (string, error)
}

// SSHCredentials is a username/password pair for password-authenticated SSH.
// The password travels only inside the SSH auth exchange.
type SSHCredentials struct {
	Username string
	Password string
}

// SSHRunner runs commands over password-authenticated SSH, one session per
// command. Host keys are not pinned: the tool talks to appliances inside a
// management network where keys rotate with firmware.
type SSHRunner struct {
	creds   SSHCredentials
	timeout time.Duration
}

func NewSSHRunner(creds SSHCredentials, timeout time.Duration) *SSHRunner {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &SSHRunner{creds: creds, timeout: timeout}
}

func (r *SSHRunner) Run(ctx context.Context, host, command string) (string, error) {
	cfg := &ssh.ClientConfig{
		User:            r.creds.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(r.creds.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         r.timeout,
	}

	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, "22")
	}

	dialer := net.Dialer{Timeout: r.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return "", fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("ssh session on %s: %w", addr, err)
	}
	defer session.Close()

	var stdout bytes.Buffer
	session.Stdout = &stdout

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("run on %s: %w", addr, err)
		}
	}
	return stdout.String(), nil
}
