package record

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"
)

// Capture format is fixed: the transcription service expects 16 kHz mono
// 16-bit PCM.
const (
	sampleRate      = 16000
	channels        = 1
	bitDepth        = 16
	framesPerBuffer = 1024
)

// Microphone is the PortAudio Capture implementation. One take at a time;
// the Session above guarantees calls are serialized.
type Microphone struct {
	mu     sync.Mutex
	path   string
	cancel chan struct{}
	done   chan error
}

// NewMicrophone creates an idle microphone capture.
func NewMicrophone() *Microphone {
	return &Microphone{}
}

// Start opens the default input device and streams WAV frames to path
// until Stop or Abort.
func (m *Microphone) Start(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return fmt.Errorf("capture already running")
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init: %w", err)
	}

	in := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(channels, 0, float64(sampleRate), len(in), in)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("start input stream: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		stream.Stop()
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("create wav file: %w", err)
	}

	m.path = path
	m.cancel = make(chan struct{})
	m.done = make(chan error, 1)

	go loop(stream, file, in, m.cancel, m.done)
	return nil
}

// Stop finalizes the WAV file and blocks until the encoder has flushed.
func (m *Microphone) Stop() error {
	return m.finish(false)
}

// Abort discards the take and removes the partial file.
func (m *Microphone) Abort() error {
	return m.finish(true)
}

func (m *Microphone) finish(discard bool) error {
	m.mu.Lock()
	if m.cancel == nil {
		m.mu.Unlock()
		return fmt.Errorf("capture not running")
	}
	cancel := m.cancel
	done := m.done
	path := m.path
	m.cancel = nil
	m.done = nil
	m.path = ""
	m.mu.Unlock()

	close(cancel)
	err := <-done

	if discard {
		os.Remove(path)
	}
	return err
}

// loop reads input frames and appends them to the encoder until cancelled,
// then finalizes the file and reports the outcome on done.
func loop(stream *portaudio.Stream, file *os.File, in []int16, cancel <-chan struct{}, done chan<- error) {
	defer portaudio.Terminate()

	enc := wav.NewEncoder(file, sampleRate, bitDepth, channels, 1)
	format := &audio.Format{NumChannels: channels, SampleRate: sampleRate}
	intBuf := make([]int, len(in))

	var loopErr error
	running := true
	for running && loopErr == nil {
		select {
		case <-cancel:
			running = false
			continue
		default:
		}

		if err := stream.Read(); err != nil {
			// Overflow and transient device errors: skip the frame.
			time.Sleep(10 * time.Millisecond)
			continue
		}
		for i, v := range in {
			intBuf[i] = int(v)
		}
		buf := &audio.IntBuffer{Format: format, Data: intBuf, SourceBitDepth: bitDepth}
		if err := enc.Write(buf); err != nil {
			loopErr = fmt.Errorf("write wav frames: %w", err)
		}
	}

	stream.Stop()
	stream.Close()

	if err := enc.Close(); err != nil && loopErr == nil {
		loopErr = fmt.Errorf("finalize wav: %w", err)
	}
	if err := file.Close(); err != nil && loopErr == nil {
		loopErr = fmt.Errorf("close wav: %w", err)
	}
	done <- loopErr
}
