package service

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/joho/godotenv"

	"github.com/chris/chronos/config"
)

const (
	Label      = "com.chronos.agent"
	DefaultBin = "/usr/local/bin/chronos"
)

// Manager installs and drives the chronos daemon as a launchd agent.
type Manager struct {
	Home    string
	BinDest string
	Out     io.Writer

	// run executes an external command, wired to os/exec outside tests.
	run func(stdout io.Writer, name string, args ...string) error
}

func NewManager() *Manager {
	home, _ := os.UserHomeDir()
	return &Manager{Home: home, BinDest: DefaultBin, Out: os.Stdout, run: runCommand}
}

func (m *Manager) plistPath() string {
	return filepath.Join(m.Home, "Library", "LaunchAgents", Label+".plist")
}

func (m *Manager) stdoutLog() string {
	return filepath.Join(m.Home, "Library", "Logs", "chronos-stdout.log")
}

func (m *Manager) stderrLog() string {
	return filepath.Join(m.Home, "Library", "Logs", "chronos-stderr.log")
}

func (m *Manager) printf(format string, args ...any) {
	fmt.Fprintf(m.Out, format+"\n", args...)
}

// Install copies the running binary to BinDest, seeds the config file from
// ./.env on first install, writes the plist and loads it.
func (m *Manager) Install() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}
	if exe, err = filepath.EvalSymlinks(exe); err != nil {
		return fmt.Errorf("resolving symlinks: %w", err)
	}
	if err := copyFile(exe, m.BinDest, 0o755); err != nil {
		return fmt.Errorf("installing binary: %w", err)
	}
	m.printf("installed binary to %s", m.BinDest)

	if seeded, err := seedConfig(".env", config.ConfigFile()); err != nil {
		return err
	} else if seeded {
		m.printf("seeded config from .env -> %s", config.ConfigFile())
	} else {
		m.printf("using config at %s", config.ConfigFile())
	}

	plist, err := m.renderPlist(workDir(config.ConfigFile()))
	if err != nil {
		return fmt.Errorf("generating plist: %w", err)
	}

	if _, err := os.Stat(m.plistPath()); err == nil {
		_ = m.launchctl("unload", m.plistPath())
	}
	if err := os.MkdirAll(filepath.Dir(m.plistPath()), 0o755); err != nil {
		return fmt.Errorf("creating LaunchAgents dir: %w", err)
	}
	if err := os.WriteFile(m.plistPath(), []byte(plist), 0o644); err != nil {
		return fmt.Errorf("writing plist: %w", err)
	}
	m.printf("wrote plist to %s", m.plistPath())

	if err := m.launchctl("load", m.plistPath()); err != nil {
		return fmt.Errorf("loading plist: %w", err)
	}
	m.printf("service loaded and will start on login")
	return nil
}

// Uninstall unloads and removes the plist and the installed binary.
func (m *Manager) Uninstall() error {
	if _, err := os.Stat(m.plistPath()); err == nil {
		if err := m.launchctl("unload", m.plistPath()); err != nil {
			m.printf("warning: unload failed: %v", err)
		}
		if err := os.Remove(m.plistPath()); err != nil {
			return fmt.Errorf("removing plist: %w", err)
		}
		m.printf("removed %s", m.plistPath())
	} else {
		m.printf("plist not found, skipping")
	}

	if _, err := os.Stat(m.BinDest); err == nil {
		if err := os.Remove(m.BinDest); err != nil {
			return fmt.Errorf("removing binary: %w", err)
		}
		m.printf("removed %s", m.BinDest)
	} else {
		m.printf("binary not found at %s, skipping", m.BinDest)
	}
	m.printf("uninstalled")
	return nil
}

func (m *Manager) Start() error { return m.launchctl("start", Label) }

func (m *Manager) Stop() error { return m.launchctl("stop", Label) }

func (m *Manager) Restart() error {
	_ = m.Stop()
	return m.Start()
}

func (m *Manager) Status() error {
	if err := m.run(m.Out, "launchctl", "list", Label); err != nil {
		m.printf("service is not loaded")
	}
	return nil
}

// Logs follows the daemon's structured log and launchd's captured output.
func (m *Manager) Logs() error {
	return m.run(m.Out, "tail", "-f",
		filepath.Join(config.LogDir(), "chronos.log"), m.stdoutLog(), m.stderrLog())
}

func (m *Manager) launchctl(args ...string) error {
	return m.run(nil, "launchctl", args...)
}

func runCommand(stdout io.Writer, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("%s %s: %s", name, strings.Join(args, " "), msg)
	}
	return nil
}

// seedConfig copies src to dst when dst does not exist yet.
func seedConfig(src, dst string) (bool, error) {
	if _, err := os.Stat(dst); err == nil {
		return false, nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return false, fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return false, fmt.Errorf("writing config: %w", err)
	}
	return true, nil
}

// workDir is where launchd starts the daemon. Relative DATABASE_PATH or
// MODEL_BUNDLE_PATH values resolve against it, so those pin it to the
// directory install was run from.
func workDir(configFile string) string {
	env, _ := godotenv.Read(configFile)
	for _, k := range []string{"DATABASE_PATH", "MODEL_BUNDLE_PATH"} {
		if p, ok := env[k]; ok && p != "" && !filepath.IsAbs(p) {
			if wd, err := os.Getwd(); err == nil {
				return wd
			}
		}
	}
	return filepath.Dir(configFile)
}

func copyFile(src, dst string, mode os.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, mode)
}

var plistTemplate = template.Must(template.New("plist").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>{{.Label}}</string>
	<key>ProgramArguments</key>
	<array>
		<string>{{.BinPath}}</string>
		<string>run</string>
	</array>
	<key>WorkingDirectory</key>
	<string>{{.WorkDir}}</string>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<true/>
	<key>StandardOutPath</key>
	<string>{{.StdoutLog}}</string>
	<key>StandardErrorPath</key>
	<string>{{.StderrLog}}</string>
</dict>
</plist>
`))

type plistData struct {
	Label     string
	BinPath   string
	WorkDir   string
	StdoutLog string
	StderrLog string
}

func (m *Manager) renderPlist(workDir string) (string, error) {
	var buf bytes.Buffer
	err := plistTemplate.Execute(&buf, plistData{
		Label:     Label,
		BinPath:   m.BinDest,
		WorkDir:   workDir,
		StdoutLog: m.stdoutLog(),
		StderrLog: m.stderrLog(),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
