package audio

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"
)

// DuplexConfig selects the devices and stream layout of a Duplex.
// Empty device names select the system default.
type DuplexConfig struct {
	CaptureDevice  string
	PlaybackDevice string
	SampleRate     int
	Channels       int
	PeriodFrames   int
	Latency        time.Duration
}

// Duplex captures from one device, filters on the playback callback and
// plays to another. A lock-free ring buffer pre-filled with Latency worth of
// silence decouples the two device clocks.
type Duplex struct {
	ctx      *malgo.AllocatedContext
	capture  *malgo.Device
	playback *malgo.Device
	ring     *Ring
	proc     Processor
	channels int

	captureBuf []float32
	playBuf    []float32
	underruns  atomic.Uint64
}

// NewDuplex opens both devices. Nothing runs until Start.
func NewDuplex(cfg DuplexConfig, proc Processor) (*Duplex, error) {
	if cfg.Channels <= 0 || cfg.SampleRate <= 0 || cfg.PeriodFrames <= 0 {
		return nil, fmt.Errorf("invalid duplex config: %d Hz, %d channels, %d frames", cfg.SampleRate, cfg.Channels, cfg.PeriodFrames)
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}

	latencyFrames := int(cfg.Latency.Seconds() * float64(cfg.SampleRate))
	d := &Duplex{
		ctx:      ctx,
		proc:     proc,
		channels: cfg.Channels,
		ring:     NewRing((latencyFrames+cfg.PeriodFrames)*cfg.Channels*2, cfg.Channels),
		// devices may deliver larger periods than requested; callbacks chunk
		captureBuf: make([]float32, cfg.PeriodFrames*cfg.Channels),
		playBuf:    make([]float32, cfg.PeriodFrames*cfg.Channels),
	}
	d.ring.Prefill(latencyFrames * cfg.Channels)

	if err := d.initDevices(cfg); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func (d *Duplex) initDevices(cfg DuplexConfig) error {
	captureInfo, err := findDevice(d.ctx, malgo.Capture, cfg.CaptureDevice)
	if err != nil {
		return err
	}
	playbackInfo, err := findDevice(d.ctx, malgo.Playback, cfg.PlaybackDevice)
	if err != nil {
		return err
	}

	{
		deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
		if captureInfo != nil {
			deviceConfig.Capture.DeviceID = captureInfo.ID.Pointer()
		}
		deviceConfig.Capture.Format = malgo.FormatF32
		deviceConfig.Capture.Channels = uint32(cfg.Channels)
		deviceConfig.SampleRate = uint32(cfg.SampleRate)
		deviceConfig.PeriodSizeInFrames = uint32(cfg.PeriodFrames)

		d.capture, err = malgo.InitDevice(d.ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: d.onCapture})
		if err != nil {
			return fmt.Errorf("init capture device: %w", err)
		}
	}

	{
		deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
		if playbackInfo != nil {
			deviceConfig.Playback.DeviceID = playbackInfo.ID.Pointer()
		}
		deviceConfig.Playback.Format = malgo.FormatF32
		deviceConfig.Playback.Channels = uint32(cfg.Channels)
		deviceConfig.SampleRate = uint32(cfg.SampleRate)
		deviceConfig.PeriodSizeInFrames = uint32(cfg.PeriodFrames)

		d.playback, err = malgo.InitDevice(d.ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: d.onPlayback})
		if err != nil {
			return fmt.Errorf("init playback device: %w", err)
		}
	}

	return nil
}

func (d *Duplex) onCapture(_, pInputSamples []byte, framecount uint32) {
	total := min(int(framecount)*d.channels, len(pInputSamples)/4)
	for off := 0; off < total; {
		n := decodeFloat32(d.captureBuf[:min(len(d.captureBuf), total-off)], pInputSamples[off*4:])
		d.ring.Write(d.captureBuf[:n])
		off += n
	}
}

func (d *Duplex) onPlayback(pOutputSample, _ []byte, framecount uint32) {
	total := min(int(framecount)*d.channels, len(pOutputSample)/4)
	for off := 0; off < total; {
		block := d.playBuf[:min(len(d.playBuf), total-off)]
		n := d.ring.Read(block)
		if n < len(block) {
			clear(block[n:])
			d.underruns.Add(1)
		}

		d.proc.Process(block, len(block)/d.channels, d.channels)

		encodeFloat32(pOutputSample[off*4:], block)
		off += len(block)
	}
}

// Start runs both devices.
func (d *Duplex) Start() error {
	if err := d.capture.Start(); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	if err := d.playback.Start(); err != nil {
		return fmt.Errorf("start playback: %w", err)
	}
	return nil
}

// Underruns returns how many playback periods found the ring short.
func (d *Duplex) Underruns() uint64 {
	return d.underruns.Load()
}

// Close stops the devices and frees the audio context.
func (d *Duplex) Close() {
	if d.capture != nil {
		d.capture.Uninit()
	}
	if d.playback != nil {
		d.playback.Uninit()
	}
	if d.ctx != nil {
		if err := d.ctx.Uninit(); err != nil {
			log.Printf("Failed to release audio context: %v", err)
		}
		d.ctx.Free()
	}
}

// Devices lists capture and playback device names.
func Devices() (capture, playback []string, err error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("init audio context: %w", err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	for _, kind := range []malgo.DeviceType{malgo.Capture, malgo.Playback} {
		infos, err := ctx.Devices(kind)
		if err != nil {
			return nil, nil, fmt.Errorf("list devices: %w", err)
		}
		for _, info := range infos {
			if kind == malgo.Capture {
				capture = append(capture, info.Name())
			} else {
				playback = append(playback, info.Name())
			}
		}
	}
	return capture, playback, nil
}

func findDevice(ctx *malgo.AllocatedContext, kind malgo.DeviceType, name string) (*malgo.DeviceInfo, error) {
	if name == "" {
		return nil, nil
	}
	infos, err := ctx.Devices(kind)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	for i := range infos {
		if infos[i].Name() == name {
			return &infos[i], nil
		}
	}
	return nil, fmt.Errorf("device not found: %s", name)
}
