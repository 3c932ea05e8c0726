package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"
	"github.com/tidwall/gjson"

	"github.com/chris/chronos/internal/logger"
)

var findProcessFunc = ps.FindProcess

// LocalServer runs llama.cpp's llama-server for the bundled model.
type LocalServer struct {
	Bin           string
	ModelPath     string
	BaseURL       string // OpenAI-style base, e.g. http://127.0.0.1:8089/v1
	ContextTokens int
	PIDFile       string
	PollInterval  time.Duration
	// StartTimeout bounds Start, including a model load. Zero means no limit
	// beyond the caller's context.
	StartTimeout time.Duration

	http    *http.Client
	cmd     *exec.Cmd
	exited  chan struct{} // closed once the started child has exited
	exitErr error         // valid after exited is closed
}

func NewLocalServer(bin, modelPath, baseURL, pidFile string, contextTokens int) *LocalServer {
	return &LocalServer{
		Bin:           bin,
		ModelPath:     modelPath,
		BaseURL:       baseURL,
		ContextTokens: contextTokens,
		PIDFile:       pidFile,
		PollInterval:  500 * time.Millisecond,
		StartTimeout:  2 * time.Minute,
		http:          &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *LocalServer) healthURL() (string, error) {
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	u.Path = "/health"
	return u.String(), nil
}

// Start launches the server unless one from an earlier run is still alive,
// then blocks until it reports healthy, the child exits, StartTimeout passes
// or ctx ends. Errors wrap ErrModelUnavailable.
func (s *LocalServer) Start(ctx context.Context) error {
	if s.StartTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.StartTimeout)
		defer cancel()
	}

	if pid, ok := s.livePID(); ok {
		logger.Info("reusing running llama-server", "pid", pid)
		if err := s.WaitHealthy(ctx); err != nil {
			// Dead or recycled pid. Forget it so the next attempt launches fresh.
			s.removePIDFile()
			return fmt.Errorf("%w: adopted llama-server (pid %d): %v", ErrModelUnavailable, pid, err)
		}
		return nil
	}

	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: parsing base URL: %v", ErrModelUnavailable, err)
	}
	host, port, err := net.SplitHostPort(u.Host)
	if err != nil {
		return fmt.Errorf("%w: base URL %q needs host:port: %v", ErrModelUnavailable, s.BaseURL, err)
	}

	args := []string{"-m", s.ModelPath, "--host", host, "--port", port}
	if s.ContextTokens > 0 {
		args = append(args, "-c", strconv.Itoa(s.ContextTokens))
	}
	cmd := exec.Command(s.Bin, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: starting llama-server: %v", ErrModelUnavailable, err)
	}
	s.cmd = cmd
	exited := make(chan struct{})
	s.exited = exited
	logger.Info("llama-server started", "pid", cmd.Process.Pid, "model", s.ModelPath)

	if s.PIDFile != "" {
		if err := os.WriteFile(s.PIDFile, []byte(strconv.Itoa(cmd.Process.Pid)), 0o644); err != nil {
			logger.Warn("writing pid file", "err", err)
		}
	}

	go func() {
		s.exitErr = cmd.Wait()
		s.removePIDFile()
		logger.Info("llama-server exited", "pid", cmd.Process.Pid, "err", s.exitErr)
		close(exited)
	}()

	if err := s.waitHealthy(ctx, exited); err != nil {
		_ = s.Stop()
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return nil
}

// WaitHealthy polls /health until the server answers {"status":"ok"}.
func (s *LocalServer) WaitHealthy(ctx context.Context) error {
	return s.waitHealthy(ctx, nil)
}

// waitHealthy also gives up as soon as exited is closed. A nil exited never
// fires.
func (s *LocalServer) waitHealthy(ctx context.Context, exited <-chan struct{}) error {
	health, err := s.healthURL()
	if err != nil {
		return err
	}
	t := time.NewTicker(s.PollInterval)
	defer t.Stop()
	for {
		if s.healthy(ctx, health) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for llama-server: %w", ctx.Err())
		case <-exited:
			return fmt.Errorf("llama-server exited before becoming healthy: %v", s.exitErr)
		case <-t.C:
		}
	}
}

func (s *LocalServer) healthy(ctx context.Context, health string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, health, nil)
	if err != nil {
		return false
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		return false
	}
	return gjson.GetBytes(body, "status").String() == "ok"
}

// livePID reads the pid file and checks the process still exists.
func (s *LocalServer) livePID() (int, bool) {
	if s.PIDFile == "" {
		return 0, false
	}
	b, err := os.ReadFile(s.PIDFile)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	p, err := findProcessFunc(pid)
	if err != nil || p == nil {
		return 0, false
	}
	return pid, true
}

// Stop kills a server this process started and waits for it to exit.
// Servers adopted from a pid file are left running.
func (s *LocalServer) Stop() error {
	if s.cmd == nil || s.cmd.Process == nil {
		return nil
	}
	err := s.cmd.Process.Kill()
	<-s.exited
	s.cmd = nil
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("stopping llama-server: %w", err)
	}
	return nil
}

func (s *LocalServer) removePIDFile() {
	if s.PIDFile == "" {
		return
	}
	if err := os.Remove(s.PIDFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("removing pid file", "err", err)
	}
}
