package player

import (
	"crypto/rand"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/alexredboyPRO/Synkim/internal/domain"
	"github.com/alexredboyPRO/Synkim/pkg/log"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
)

// MPV implements Adapter using mpv's JSON-IPC protocol. The process is
// started lazily on the first Load and kept alive across media changes
// via loadfile.
type MPV struct {
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}
	events     chan Event
	listener   *eventListener

	mu sync.Mutex // protects socket writes

	stateMu    sync.RWMutex
	state      State
	lastPaused bool
}

func NewMPV() *MPV {
	return &MPV{
		exited: make(chan struct{}),
		events: make(chan Event, 16),
		state:  StateUnstarted,
	}
}

// Load starts mpv if needed and loads the media reference into it.
func (m *MPV) Load(ref domain.MediaRef) error {
	if ref.IsZero() {
		return fmt.Errorf("empty media reference")
	}

	if !m.running() {
		if err := m.start(); err != nil {
			return err
		}
	}

	if _, err := m.sendCommand([]interface{}{"loadfile", ref.WatchURL(), "replace"}); err != nil {
		return fmt.Errorf("load %s: %w", ref, err)
	}
	// A fresh load starts paused; playback is an explicit command.
	if _, err := m.sendCommand([]interface{}{"set_property", "pause", true}); err != nil {
		return fmt.Errorf("pause after load: %w", err)
	}

	m.setState(StateCued)
	return nil
}

func (m *MPV) Play() error {
	_, err := m.sendCommand([]interface{}{"set_property", "pause", false})
	return err
}

func (m *MPV) Pause() error {
	_, err := m.sendCommand([]interface{}{"set_property", "pause", true})
	return err
}

// Seek moves playback to the given absolute position in seconds.
func (m *MPV) Seek(seconds float64) error {
	_, err := m.sendCommand([]interface{}{"seek", seconds, "absolute"})
	return err
}

// Position returns the current playback position in seconds.
func (m *MPV) Position() (float64, error) {
	data, err := m.sendCommand([]interface{}{"get_property", "time-pos"})
	if err != nil {
		return 0, err
	}
	if data == nil {
		return 0, fmt.Errorf("time-pos: nil response")
	}
	val, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("time-pos: expected float64, got %T", data)
	}
	return val, nil
}

func (m *MPV) State() State {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state
}

func (m *MPV) Events() <-chan Event {
	return m.events
}

// Close shuts down the mpv process and cleans up resources.
func (m *MPV) Close() error {
	if m.listener != nil {
		m.listener.stop()
	}

	if m.socketPath == "" {
		return nil
	}

	// Graceful quit via IPC first.
	_, _ = m.sendCommand([]interface{}{"quit"})

	select {
	case <-m.exited:
	case <-time.After(3 * time.Second):
		_ = killProcess(m.cmd)
	}

	_ = os.Remove(m.socketPath)
	return nil
}

// start spawns mpv idle with an IPC socket and attaches the event
// listener once the socket accepts connections.
func (m *MPV) start() error {
	if m.socketPath == "" {
		randomBytes := make([]byte, 4)
		if _, err := rand.Read(randomBytes); err != nil {
			return fmt.Errorf("generate socket name: %w", err)
		}
		m.socketPath = filepath.Join(os.TempDir(), fmt.Sprintf("synkim-%x.sock", randomBytes))
	}

	args := []string{
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", m.socketPath),
		"--force-window=yes",
		"--idle=yes",
		"--pause",
	}

	m.cmd = exec.Command("mpv", args...)
	m.cmd.SysProcAttr = sysProcAttr()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	m.exited = make(chan struct{})
	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()

	if err := m.waitForSocket(); err != nil {
		select {
		case <-m.exited:
		default:
			l := log.L()
			l.Warn().Msg("killing mpv: socket never became ready")
			_ = killProcess(m.cmd)
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	m.listener = newEventListener(m.socketPath, m.onPropertyChange)
	if err := m.listener.start(); err != nil {
		return fmt.Errorf("event listener: %w", err)
	}

	return nil
}

// waitForSocket polls until the mpv IPC socket accepts connections.
func (m *MPV) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-m.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

func (m *MPV) running() bool {
	if m.cmd == nil {
		return false
	}
	select {
	case <-m.exited:
		return false
	default:
		return true
	}
}

func (m *MPV) setState(s State) {
	m.stateMu.Lock()
	changed := m.state != s
	m.state = s
	m.stateMu.Unlock()

	if !changed {
		return
	}
	select {
	case m.events <- Event{State: s}:
	default:
		// A stalled consumer loses old transitions, never blocks playback.
	}
}

// onPropertyChange maps observed mpv properties onto the discrete state
// enum the engine consumes.
func (m *MPV) onPropertyChange(name string, data interface{}) {
	switch name {
	case "pause":
		paused, ok := data.(bool)
		if !ok {
			return
		}
		m.stateMu.Lock()
		m.lastPaused = paused
		m.stateMu.Unlock()
		if paused {
			m.setState(StatePaused)
		} else {
			m.setState(StatePlaying)
		}

	case "seeking":
		seeking, ok := data.(bool)
		if !ok {
			return
		}
		if seeking {
			m.setState(StateBuffering)
			return
		}
		// Seek finished; fall back to the last known pause state.
		m.stateMu.RLock()
		paused := m.lastPaused
		m.stateMu.RUnlock()
		if paused {
			m.setState(StatePaused)
		} else {
			m.setState(StatePlaying)
		}

	case "eof-reached":
		if eof, ok := data.(bool); ok && eof {
			m.setState(StateEnded)
		}

	case "end-file":
		select {
		case m.events <- Event{State: m.State(), Err: fmt.Errorf("playback ended: %v", data)}:
		default:
		}
	}
}
