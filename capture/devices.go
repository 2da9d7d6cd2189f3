package capture

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Device describes one audio device visible to the host API.
type Device struct {
	ID                int     `json:"id"`
	Name              string  `json:"name"`
	MaxInputChannels  int     `json:"maxInputChannels"`
	MaxOutputChannels int     `json:"maxOutputChannels"`
	DefaultSampleRate float64 `json:"defaultSampleRate"`
	IsDefaultInput    bool    `json:"isDefaultInput"`
}

// List enumerates all audio devices. The ID of each entry is the deviceID
// accepted by OpenMicrophone.
func List() ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate audio devices: %w", err)
	}
	defaultIn, _ := portaudio.DefaultInputDevice()

	out := make([]Device, 0, len(devices))
	for i, dev := range devices {
		out = append(out, Device{
			ID:                i,
			Name:              dev.Name,
			MaxInputChannels:  dev.MaxInputChannels,
			MaxOutputChannels: dev.MaxOutputChannels,
			DefaultSampleRate: dev.DefaultSampleRate,
			IsDefaultInput:    defaultIn != nil && dev == defaultIn,
		})
	}
	return out, nil
}
