// Package record implements the recording sink for the engine's effects
// chain output: a mono 16-bit WAV encoder fed through a bounded queue so
// the render callback hands blocks off without ever blocking on disk I/O.
package record

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// queueDepth is how many blocks may be in flight between the render
// callback and the disk writer before blocks are dropped.
const queueDepth = 64

// Recorder writes the processed mix to a WAV file. WriteBlock is safe to
// call from the render callback: it copies the block into a pre-allocated
// slab and enqueues it, dropping (and counting) blocks when the writer
// falls behind.
type Recorder struct {
	enc  *wav.Encoder
	file *os.File

	full    chan []float32
	free    chan []float32
	dropped atomic.Int64

	wg        sync.WaitGroup
	closeOnce sync.Once
	closed    atomic.Bool
	writeErr  atomic.Value // error

	intBuf *audio.IntBuffer
}

// Create opens path for writing and starts the background writer.
func Create(path string, sampleRate, blockSize int) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording file: %w", err)
	}

	r := &Recorder{
		enc:  wav.NewEncoder(f, sampleRate, 16, 1, 1),
		file: f,
		full: make(chan []float32, queueDepth),
		free: make(chan []float32, queueDepth),
		intBuf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
			Data:           make([]int, blockSize),
			SourceBitDepth: 16,
		},
	}
	for i := 0; i < queueDepth; i++ {
		r.free <- make([]float32, blockSize)
	}

	r.wg.Add(1)
	go r.writeLoop()
	return r, nil
}

// WriteBlock enqueues one block of samples for encoding. Never blocks; a
// saturated queue drops the block. The recorder must be detached from the
// engine before Close is called.
func (r *Recorder) WriteBlock(block []float32) {
	if r.closed.Load() {
		return
	}
	select {
	case slab := <-r.free:
		n := copy(slab, block)
		r.full <- slab[:n]
	default:
		r.dropped.Add(1)
	}
}

// Dropped returns how many blocks were discarded because the disk writer
// fell behind.
func (r *Recorder) Dropped() int64 { return r.dropped.Load() }

func (r *Recorder) writeLoop() {
	defer r.wg.Done()
	for slab := range r.full {
		if r.writeErr.Load() == nil {
			r.encode(slab)
		}
		r.free <- slab[:cap(slab)]
	}
}

func (r *Recorder) encode(slab []float32) {
	data := r.intBuf.Data[:0]
	for _, s := range slab {
		v := int(s * 32767)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		data = append(data, v)
	}
	r.intBuf.Data = data
	if err := r.enc.Write(r.intBuf); err != nil {
		r.writeErr.Store(fmt.Errorf("failed to encode recording block: %w", err))
	}
	r.intBuf.Data = r.intBuf.Data[:cap(r.intBuf.Data)]
}

// Close drains the queue, finalizes the WAV header and closes the file.
// Returns the first write error encountered, if any.
func (r *Recorder) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		close(r.full)
		r.wg.Wait()
		if e := r.enc.Close(); e != nil && err == nil {
			err = fmt.Errorf("failed to finalize recording: %w", e)
		}
		if e := r.file.Close(); e != nil && err == nil {
			err = fmt.Errorf("failed to close recording file: %w", e)
		}
	})
	if err == nil {
		if e, ok := r.writeErr.Load().(error); ok {
			err = e
		}
	}
	return err
}
