package capture

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Initialize prepares the portaudio host API. Must be called once before
// opening device streams; pair with Terminate.
func Initialize() error { return portaudio.Initialize() }

// Terminate releases the portaudio host API.
func Terminate() error { return portaudio.Terminate() }

// DeviceStream is a live portaudio input. The device callback downmixes to
// mono and writes into a lock-free ring; Read drains the ring without
// blocking, so the engine's render path never waits on the device clock.
type DeviceStream struct {
	stream   *portaudio.Stream
	ring     *ring
	channels int
	scratch  []float32

	mu     sync.Mutex
	closed bool
}

// OpenMicrophone opens an input stream on the given device. A negative
// deviceID selects the default input device.
func OpenMicrophone(deviceID int, sampleRate float64, blockSize int) (*DeviceStream, error) {
	dev, err := inputDevice(deviceID)
	if err != nil {
		return nil, err
	}
	return openInput(dev, 1, sampleRate, blockSize)
}

// OpenSystemAudio opens a loopback/monitor capture of the system output.
// It scans the device list for a loopback-capable input (PulseAudio
// monitors, BlackHole, Soundflower, Stereo Mix); without one the request
// fails and the engine does not retry.
func OpenSystemAudio(sampleRate float64, blockSize int) (*DeviceStream, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate audio devices: %w", err)
	}
	markers := []string{"monitor", "loopback", "blackhole", "soundflower", "stereo mix"}
	for _, dev := range devices {
		if dev.MaxInputChannels == 0 {
			continue
		}
		name := strings.ToLower(dev.Name)
		for _, m := range markers {
			if strings.Contains(name, m) {
				channels := dev.MaxInputChannels
				if channels > 2 {
					channels = 2
				}
				return openInput(dev, channels, sampleRate, blockSize)
			}
		}
	}
	return nil, fmt.Errorf("no system loopback capture device found")
}

func inputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	if deviceID < 0 {
		dev, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("no default input device: %w", err)
		}
		return dev, nil
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate audio devices: %w", err)
	}
	if deviceID >= len(devices) {
		return nil, fmt.Errorf("input device %d not found (%d devices)", deviceID, len(devices))
	}
	dev := devices[deviceID]
	if dev.MaxInputChannels == 0 {
		return nil, fmt.Errorf("device %q has no input channels", dev.Name)
	}
	return dev, nil
}

func openInput(dev *portaudio.DeviceInfo, channels int, sampleRate float64, blockSize int) (*DeviceStream, error) {
	s := &DeviceStream{
		// Four blocks of headroom between the device clock and the
		// engine's render cadence.
		ring:     newRing(blockSize * 4),
		channels: channels,
		scratch:  make([]float32, blockSize*4),
	}

	params := portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = channels
	params.SampleRate = sampleRate
	params.FramesPerBuffer = blockSize

	stream, err := portaudio.OpenStream(params, s.callback)
	if err != nil {
		return nil, fmt.Errorf("failed to open input stream on %q: %w", dev.Name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start input stream on %q: %w", dev.Name, err)
	}
	s.stream = stream
	return s, nil
}

// callback runs on the portaudio thread. Interleaved frames are downmixed
// to mono without allocating; samples the ring cannot take are dropped and
// counted.
func (s *DeviceStream) callback(in []float32) {
	if s.channels == 1 {
		s.ring.write(in)
		return
	}
	frames := len(in) / s.channels
	for done := 0; done < frames; {
		chunk := frames - done
		if chunk > len(s.scratch) {
			chunk = len(s.scratch)
		}
		for f := 0; f < chunk; f++ {
			sum := float32(0)
			base := (done + f) * s.channels
			for c := 0; c < s.channels; c++ {
				sum += in[base+c]
			}
			s.scratch[f] = sum / float32(s.channels)
		}
		s.ring.write(s.scratch[:chunk])
		done += chunk
	}
}

// Read drains up to len(dst) buffered samples.
func (s *DeviceStream) Read(dst []float32) int {
	return s.ring.read(dst)
}

// Dropped returns how many captured samples were discarded because the
// engine fell behind.
func (s *DeviceStream) Dropped() int64 { return s.ring.Dropped() }

// Close stops the device stream. Idempotent.
func (s *DeviceStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.stream.Stop(); err != nil {
		s.stream.Close()
		return fmt.Errorf("failed to stop input stream: %w", err)
	}
	if err := s.stream.Close(); err != nil {
		return fmt.Errorf("failed to close input stream: %w", err)
	}
	return nil
}
