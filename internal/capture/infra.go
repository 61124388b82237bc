package capture

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// startupProbe: сколько ждём, чтобы увидеть, не упал ли рекордер сразу
const startupProbe = 300 * time.Millisecond

// CommandDevice records through an external program writing audio to stdout
// (arecord, ffmpeg, sox). A program that cannot start, or that dies right away
// with a non-zero status, counts as a denied microphone.
type CommandDevice struct {
	name string
	args []string
}

func NewCommandDevice(command string) (*CommandDevice, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty capture command")
	}
	return &CommandDevice{name: fields[0], args: fields[1:]}, nil
}

func (d *CommandDevice) Open(ctx context.Context) (Stream, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("capture pipe: %w", err)
	}

	cmd := exec.Command(d.name, d.args...)
	var stderr bytes.Buffer
	cmd.Stdout = pw
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	// у родителя пишущий конец не нужен: EOF придёт, когда процесс завершится
	pw.Close()

	s := &commandStream{cmd: cmd, out: pr, done: make(chan struct{})}
	go func() {
		s.waitErr = cmd.Wait()
		close(s.done)
	}()

	select {
	case <-s.done:
		if s.waitErr != nil {
			pr.Close()
			return nil, fmt.Errorf("%w: %v: %s", ErrPermissionDenied, s.waitErr, strings.TrimSpace(stderr.String()))
		}
	case <-time.After(startupProbe):
	case <-ctx.Done():
		s.Stop()
		pr.Close()
		return nil, ctx.Err()
	}

	return s, nil
}

type commandStream struct {
	cmd     *exec.Cmd
	out     *os.File
	done    chan struct{}
	waitErr error

	stopOnce sync.Once
}

func (s *commandStream) Read(p []byte) (int, error) {
	return s.out.Read(p)
}

// Stop interrupts the recorder so it flushes and exits; Read then hits EOF.
func (s *commandStream) Stop() error {
	s.stopOnce.Do(func() {
		select {
		case <-s.done:
			return
		default:
		}
		_ = s.cmd.Process.Signal(os.Interrupt)
		select {
		case <-s.done:
		case <-time.After(2 * time.Second):
			_ = s.cmd.Process.Kill()
			<-s.done
		}
	})
	return nil
}
