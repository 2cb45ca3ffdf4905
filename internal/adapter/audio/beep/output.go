package beep

import (
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// output is the audio sink the engine plays through.
// Lock and Unlock guard streamers that the sink reads concurrently.
type output interface {
	Init(sampleRate beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Clear()
	Lock()
	Unlock()
	Close()
}

// speakerOutput plays through the system sound device.
type speakerOutput struct{}

func (speakerOutput) Init(sampleRate beep.SampleRate, bufferSize int) error {
	return speaker.Init(sampleRate, bufferSize)
}

func (speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }

func (speakerOutput) Clear() { speaker.Clear() }

func (speakerOutput) Lock() { speaker.Lock() }

func (speakerOutput) Unlock() { speaker.Unlock() }

func (speakerOutput) Close() { speaker.Close() }
