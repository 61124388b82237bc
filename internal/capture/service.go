package capture

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/Vovarama1992/voice_translator/internal/models"
)

const chunkSize = 32 * 1024

type Options struct {
	// Raw keeps device bytes untouched; otherwise they are PCM16 mono wrapped into WAV.
	Raw        bool
	RawMIME    string
	SampleRate int
}

// Capturer turns a live device session into a single Recording.
type Capturer struct {
	device Device
	opts   Options
	log    *zap.SugaredLogger

	mu      sync.Mutex
	stream  Stream
	chunks  [][]byte
	done    chan struct{}
	readErr error
}

func NewCapturer(device Device, opts Options, log *zap.SugaredLogger) *Capturer {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 16000
	}
	if opts.RawMIME == "" {
		opts.RawMIME = "application/octet-stream"
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Capturer{device: device, opts: opts, log: log}
}

func (c *Capturer) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream != nil
}

// Start opens the microphone. ErrPermissionDenied when the device is unavailable.
func (c *Capturer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil {
		return ErrAlreadyCapturing
	}

	stream, err := c.device.Open(ctx)
	if err != nil {
		c.log.Warnw("[capture] open device failed", "error", err)
		if errors.Is(err, ErrPermissionDenied) {
			return err
		}
		return errors.Join(ErrPermissionDenied, err)
	}

	c.stream = stream
	c.chunks = nil
	c.readErr = nil
	c.done = make(chan struct{})
	go c.readLoop(stream, c.done)

	c.log.Infow("[capture] started")
	return nil
}

func (c *Capturer) readLoop(stream Stream, done chan struct{}) {
	defer close(done)
	for {
		buf := make([]byte, chunkSize)
		n, err := stream.Read(buf)
		if n > 0 {
			c.mu.Lock()
			c.chunks = append(c.chunks, buf[:n])
			c.mu.Unlock()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.mu.Lock()
				c.readErr = err
				c.mu.Unlock()
			}
			return
		}
	}
}

// Stop finalizes the capture. With no accumulated audio it returns (nil, nil):
// no Recording is produced and nothing downstream should run.
func (c *Capturer) Stop() (*models.Recording, error) {
	c.mu.Lock()
	stream, done := c.stream, c.done
	c.mu.Unlock()

	if stream == nil {
		return nil, nil
	}

	stopErr := stream.Stop()
	<-done

	c.mu.Lock()
	chunks := c.chunks
	readErr := c.readErr
	c.stream, c.chunks, c.done = nil, nil, nil
	c.mu.Unlock()

	if stopErr != nil {
		c.log.Warnw("[capture] stop device", "error", stopErr)
	}
	if readErr != nil {
		c.log.Warnw("[capture] read interrupted", "error", readErr)
	}

	total := 0
	for _, ch := range chunks {
		total += len(ch)
	}
	if total == 0 {
		c.log.Infow("[capture] stopped with no audio")
		return nil, nil
	}

	data := make([]byte, 0, total)
	for _, ch := range chunks {
		data = append(data, ch...)
	}

	if c.opts.Raw {
		c.log.Infow("[capture] stopped", "size", humanize.Bytes(uint64(total)))
		return models.NewRecording(data, c.opts.RawMIME, "audio"+extFor(c.opts.RawMIME), models.SourceMicrophone), nil
	}

	wav, err := EncodeWAV(data, c.opts.SampleRate)
	if err != nil {
		// половина сэмпла — считаем, что записи нет
		c.log.Infow("[capture] stopped with no complete sample")
		return nil, nil
	}
	c.log.Infow("[capture] stopped", "size", humanize.Bytes(uint64(len(wav))), "duration", Duration(wav))
	return models.NewRecording(wav, "audio/wav", "audio.wav", models.SourceMicrophone), nil
}

func extFor(mimeType string) string {
	for e, t := range audioTypes {
		if t == mimeType && e != "oga" {
			return "." + e
		}
	}
	return ".bin"
}
