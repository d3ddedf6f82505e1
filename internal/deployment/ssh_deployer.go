package deployment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	defaultSSHPort = "22"
	dialTimeout    = 30 * time.Second
)

// Target is a parsed deploy URL of the form user@host:path
type Target struct {
	User string
	Host string
	Path string
}

// ParseDeployURL parses user@host:path. The path may be relative to the remote home.
func ParseDeployURL(raw string) (Target, error) {
	if raw == "" {
		return Target{}, fmt.Errorf("deploy URL is empty")
	}

	user, hostPath, ok := strings.Cut(raw, "@")
	if !ok || user == "" {
		return Target{}, fmt.Errorf("invalid deploy URL %q: expected user@host:path", raw)
	}

	host, remotePath, ok := strings.Cut(hostPath, ":")
	if !ok || host == "" || remotePath == "" {
		return Target{}, fmt.Errorf("invalid deploy URL %q: expected user@host:path", raw)
	}

	return Target{User: user, Host: host, Path: remotePath}, nil
}

// SSHDeployer publishes files to a remote directory over SCP. It is safe for
// concurrent use; uploads are serialized over one connection.
type SSHDeployer struct {
	target         Target
	keyPath        string
	knownHostsPath string

	mu     sync.Mutex
	client *ssh.Client
}

// NewSSHDeployer creates a deployer for deployURL authenticating with the private key
// at keyPath. Host keys are checked against knownHostsPath when it is set.
func NewSSHDeployer(deployURL, keyPath, knownHostsPath string) (*SSHDeployer, error) {
	target, err := ParseDeployURL(deployURL)
	if err != nil {
		return nil, err
	}
	return &SSHDeployer{
		target:         target,
		keyPath:        keyPath,
		knownHostsPath: knownHostsPath,
	}, nil
}

// Target returns the parsed deploy destination
func (d *SSHDeployer) Target() Target {
	return d.target
}

func (d *SSHDeployer) clientConfig() (*ssh.ClientConfig, error) {
	keyData, err := os.ReadFile(d.keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH key file %s: %w", d.keyPath, err)
	}

	signer, err := ssh.ParsePrivateKey(keyData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SSH private key: %w", err)
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if d.knownHostsPath != "" {
		hostKeyCallback, err = knownhosts.New(d.knownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts %s: %w", d.knownHostsPath, err)
		}
	} else {
		log.Warn().Str("host", d.target.Host).Msg("No known hosts file configured, skipping host key verification")
	}

	return &ssh.ClientConfig{
		User:            d.target.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         dialTimeout,
	}, nil
}

// Connect establishes the SSH connection if it is not already open
func (d *SSHDeployer) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connect(ctx)
}

func (d *SSHDeployer) connect(ctx context.Context) error {
	if d.client != nil {
		return nil
	}

	config, err := d.clientConfig()
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(d.target.Host, defaultSSHPort)
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SSH server %s: %w", d.target.Host, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return fmt.Errorf("SSH handshake with %s failed: %w", d.target.Host, err)
	}
	d.client = ssh.NewClient(sshConn, chans, reqs)

	log.Info().
		Str("host", d.target.Host).
		Str("user", d.target.User).
		Msg("Connected to SSH server")

	return nil
}

// Close closes the SSH connection
func (d *SSHDeployer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.disconnect()
}

func (d *SSHDeployer) disconnect() error {
	if d.client == nil {
		return nil
	}
	err := d.client.Close()
	d.client = nil
	return err
}

// Deploy uploads localPath into the remote directory, keeping its base name.
// A failed session drops the connection so the next Deploy dials again.
func (d *SSHDeployer) Deploy(ctx context.Context, localPath string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.connect(ctx); err != nil {
		return err
	}

	if err := d.upload(localPath); err != nil {
		var sessionErr *sessionError
		if errors.As(err, &sessionErr) {
			if closeErr := d.disconnect(); closeErr != nil {
				log.Debug().Err(closeErr).Msg("Closing broken SSH connection failed")
			}
			log.Warn().
				Err(err).
				Str("host", d.target.Host).
				Msg("Dropping SSH connection after failed upload")
		}
		return err
	}
	return nil
}

// sessionError marks failures of the SSH connection itself rather than of the local file
type sessionError struct {
	err error
}

func (e *sessionError) Error() string { return e.err.Error() }
func (e *sessionError) Unwrap() error { return e.err }

func (d *SSHDeployer) upload(localPath string) error {
	localFile, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open local file %s: %w", localPath, err)
	}
	defer localFile.Close()

	fileInfo, err := localFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat local file: %w", err)
	}

	session, err := d.client.NewSession()
	if err != nil {
		return &sessionError{fmt.Errorf("failed to create SSH session: %w", err)}
	}
	defer session.Close()

	filename := filepath.Base(localPath)
	remoteFilePath := path.Join(d.target.Path, filename)

	stdin, err := session.StdinPipe()
	if err != nil {
		return &sessionError{fmt.Errorf("failed to get stdin pipe: %w", err)}
	}

	if err := session.Start(fmt.Sprintf("scp -t %s", remoteFilePath)); err != nil {
		return &sessionError{fmt.Errorf("failed to start SCP session: %w", err)}
	}

	if err := writeSCP(stdin, filename, fileInfo.Size(), localFile); err != nil {
		stdin.Close()
		return &sessionError{err}
	}
	stdin.Close()

	if err := session.Wait(); err != nil {
		return &sessionError{fmt.Errorf("SCP session failed: %w", err)}
	}

	log.Info().
		Str("local_path", localPath).
		Str("remote_path", remoteFilePath).
		Int64("size", fileInfo.Size()).
		Msg("Deployed file via SCP")

	return nil
}

// writeSCP streams one file in SCP sink protocol: header, content, zero byte
func writeSCP(w io.Writer, filename string, size int64, content io.Reader) error {
	if _, err := fmt.Fprintf(w, "C0644 %d %s\n", size, filename); err != nil {
		return fmt.Errorf("failed to write SCP header: %w", err)
	}
	if _, err := io.CopyN(w, content, size); err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}
	if _, err := w.Write([]byte{0}); err != nil {
		return fmt.Errorf("failed to write SCP end marker: %w", err)
	}
	return nil
}
