package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"rydm/internal/domain"
	"rydm/internal/logger"
	"rydm/internal/ports"
)

var execCommand = exec.Command

const (
	socketCheckRetries  = 20
	socketCheckInterval = 100 * time.Millisecond
	socketReadDeadline  = 500 * time.Millisecond
)

type MpvCommand struct {
	Command   []any `json:"command"`
	RequestID int   `json:"request_id,omitempty"`
}

type MpvResponse struct {
	Error     string `json:"error"`
	Data      any    `json:"data"`
	RequestID int    `json:"request_id"`
	Event     string `json:"event"`
}

// MpvPlayer drives one mpv process over its JSON IPC socket. The process is
// started lazily on the first Play and kept idle between tracks.
type MpvPlayer struct {
	socketPath string
	cmd        *exec.Cmd
	mu         sync.Mutex
	config     domain.PlaybackConfig
}

func NewMpvPlayer(socketPath string, cfg domain.PlaybackConfig) *MpvPlayer {
	os.Remove(socketPath)
	return &MpvPlayer{
		socketPath: socketPath,
		config:     cfg,
	}
}

var _ ports.PlayerService = (*MpvPlayer)(nil)

func (p *MpvPlayer) isProcessRunning() bool {
	return p.cmd != nil && p.cmd.Process != nil
}

func (p *MpvPlayer) startMpvProcess() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isProcessRunning() {
		if p.cmd.ProcessState != nil && p.cmd.ProcessState.Exited() {
			p.cmd = nil
		} else {
			return nil
		}
	}

	logger.Log.Info().Str("socket", p.socketPath).Msg("Starting new mpv process...")
	args := []string{
		"--idle",
		"--input-ipc-server=" + p.socketPath,
		"--no-video",
		"--no-config",
		"--no-terminal",
	}

	if p.config.Loop {
		args = append(args, "--loop-file=yes")
	} else {
		args = append(args, "--loop-file=no")
	}

	if p.config.Volume > 0 {
		args = append(args, "--volume="+strconv.Itoa(p.config.Volume))
	}

	p.cmd = execCommand("mpv", args...)
	p.cmd.Stdout = logger.Log
	p.cmd.Stderr = logger.Log

	if err := p.cmd.Start(); err != nil {
		p.cmd = nil
		return fmt.Errorf("could not start mpv process: %w", err)
	}

	for range socketCheckRetries {
		if _, err := os.Stat(p.socketPath); err == nil {
			logger.Log.Info().Str("socket", p.socketPath).Msg("mpv socket detected. Process ready.")
			return nil
		}
		time.Sleep(socketCheckInterval)
	}

	logger.Log.Error().Str("socket", p.socketPath).Msg("Timed out waiting for mpv socket.")
	p.cmd.Process.Kill()
	p.cmd = nil
	return fmt.Errorf("mpv process started but socket did not appear at %s", p.socketPath)
}

// sendCommands writes cmds on a fresh connection and collects one reply per
// command. Commands without a request id get one so their replies can be
// told apart from asynchronous events.
func (p *MpvPlayer) sendCommands(cmds ...MpvCommand) ([]MpvResponse, error) {
	conn, err := net.Dial("unix", p.socketPath)
	if err != nil {
		return nil, fmt.Errorf("could not connect to mpv socket: %w", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(socketReadDeadline))

	encoder := json.NewEncoder(conn)
	for i := range cmds {
		if cmds[i].RequestID == 0 {
			cmds[i].RequestID = i + 1
		}
		if err := encoder.Encode(cmds[i]); err != nil {
			return nil, fmt.Errorf("error sending mpv command: %w", err)
		}
	}

	var responses []MpvResponse
	scanner := bufio.NewScanner(conn)
	for len(responses) < len(cmds) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				logger.Log.Error().Err(err).Msg("Error reading from mpv socket")
			}
			break
		}

		line := scanner.Bytes()
		var resp MpvResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			logger.Log.Warn().Str("line", string(line)).Err(err).Msg("Could not parse line from mpv")
			continue
		}

		if resp.Event == "" && resp.RequestID > 0 {
			responses = append(responses, resp)
		}
	}
	return responses, nil
}

func (p *MpvPlayer) send(cmds ...MpvCommand) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.isProcessRunning() {
		return nil
	}
	responses, err := p.sendCommands(cmds...)
	if err != nil {
		return err
	}
	for _, resp := range responses {
		if resp.Error != "" && resp.Error != "success" {
			return fmt.Errorf("mpv command %v failed: %s", cmds[resp.RequestID-1].Command[0], resp.Error)
		}
	}
	return nil
}

func (p *MpvPlayer) Play(mediaURL string) error {
	return p.load(mediaURL, false)
}

// load replaces the current file. With paused set the file is opened but
// does not start playing.
func (p *MpvPlayer) load(mediaURL string, paused bool) error {
	if err := p.startMpvProcess(); err != nil {
		return err
	}
	return p.send(
		MpvCommand{Command: []any{"set_property", "pause", paused}},
		MpvCommand{Command: []any{"loadfile", mediaURL, "replace"}},
	)
}

func (p *MpvPlayer) SetPaused(paused bool) error {
	return p.send(MpvCommand{Command: []any{"set_property", "pause", paused}})
}

func (p *MpvPlayer) TogglePause() error {
	return p.send(MpvCommand{Command: []any{"cycle", "pause"}})
}

func (p *MpvPlayer) Stop() error {
	return p.send(MpvCommand{Command: []any{"stop"}})
}

// Seek jumps to an absolute position in seconds.
func (p *MpvPlayer) Seek(seconds float64) error {
	return p.send(MpvCommand{Command: []any{"seek", seconds, "absolute"}})
}

const (
	reqPause = iota + 1
	reqPos
	reqDur
	reqIdle
	reqVolume
)

func (p *MpvPlayer) GetState() (ports.PlayerState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state := ports.PlayerState{Idle: true}
	if !p.isProcessRunning() {
		return state, nil
	}

	responses, err := p.sendCommands(
		MpvCommand{Command: []any{"get_property", "pause"}, RequestID: reqPause},
		MpvCommand{Command: []any{"get_property", "time-pos"}, RequestID: reqPos},
		MpvCommand{Command: []any{"get_property", "duration"}, RequestID: reqDur},
		MpvCommand{Command: []any{"get_property", "idle-active"}, RequestID: reqIdle},
		MpvCommand{Command: []any{"get_property", "volume"}, RequestID: reqVolume},
	)
	if err != nil {
		return state, err
	}

	paused := true
	for _, resp := range responses {
		if resp.Error != "success" {
			continue
		}
		switch resp.RequestID {
		case reqPause:
			if v, ok := resp.Data.(bool); ok {
				paused = v
			}
		case reqPos:
			if v, ok := resp.Data.(float64); ok {
				state.Position = v
			}
		case reqDur:
			if v, ok := resp.Data.(float64); ok {
				state.Duration = v
			}
		case reqIdle:
			if v, ok := resp.Data.(bool); ok {
				state.Idle = v
			}
		case reqVolume:
			if v, ok := resp.Data.(float64); ok {
				state.Volume = v
			}
		}
	}
	state.IsPlaying = !paused && !state.Idle
	return state, nil
}

func (p *MpvPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isProcessRunning() {
		if err := p.cmd.Process.Kill(); err != nil {
			logger.Log.Error().Err(err).Msg("Error terminating mpv process")
		}
		p.cmd.Wait()
		p.cmd = nil
	}
	os.Remove(p.socketPath)
	return nil
}
