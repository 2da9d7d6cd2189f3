// Command livemix runs the mixing engine against live input devices: it
// attaches microphones and/or a system-audio loopback, plays the processed
// mix on the default output and renders live meters in the terminal.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"

	"github.com/shaban/livemix"
	"github.com/shaban/livemix/capture"
	"github.com/shaban/livemix/record"
)

var cli struct {
	ListDevices bool    `help:"List audio devices and exit."`
	Mic         []int   `help:"Microphone device ID to attach (repeatable, -1 for default input)." placeholder:"ID"`
	Screen      bool    `help:"Attach the system-audio loopback capture."`
	Record      string  `help:"Record the processed mix to this WAV file." placeholder:"PATH" type:"path"`
	SampleRate  float64 `help:"Engine sample rate in Hz." default:"48000"`
	BlockSize   int     `help:"Engine block size in samples." default:"512"`
	Crossfader  float64 `help:"Initial crossfader position (-1 to 1)." default:"0"`
}

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Width(18)
	meterOn    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	meterHot   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	meterOff   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("livemix"),
		kong.Description("Real-time multi-channel audio mixer."))
	ctx.FatalIfErrorf(run())
}

func run() error {
	if cli.ListDevices {
		return listDevices()
	}
	if len(cli.Mic) == 0 && !cli.Screen {
		return fmt.Errorf("nothing to mix: pass --mic and/or --screen (try --list-devices)")
	}

	engine, err := livemix.New(livemix.EngineConfig{
		SampleRate: cli.SampleRate,
		BlockSize:  cli.BlockSize,
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.Resume(); err != nil {
		return err
	}
	engine.SetCrossfader(cli.Crossfader)

	slot := 1
	if cli.Screen {
		stream, err := capture.OpenSystemAudio(cli.SampleRate, cli.BlockSize)
		if err != nil {
			return err
		}
		if _, err := engine.AddSource(slot, "system audio", stream, livemix.KindCapturedScreen); err != nil {
			stream.Close()
			return err
		}
		slot++
	}
	for _, id := range cli.Mic {
		stream, err := capture.OpenMicrophone(id, cli.SampleRate, cli.BlockSize)
		if err != nil {
			return err
		}
		label := fmt.Sprintf("mic %d", id)
		if id < 0 {
			label = "default mic"
		}
		if _, err := engine.AddSource(slot, label, stream, livemix.KindMicrophone); err != nil {
			stream.Close()
			return err
		}
		slot++
	}

	if cli.Record != "" {
		rec, err := record.Create(cli.Record, int(cli.SampleRate), cli.BlockSize)
		if err != nil {
			return err
		}
		engine.SetRecordSink(rec)
		defer func() {
			engine.SetRecordSink(nil)
			if err := rec.Close(); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
			if n := rec.Dropped(); n > 0 {
				fmt.Fprintf(os.Stderr, "recording dropped %d blocks\n", n)
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	fmt.Println(dimStyle.Render("mixing, ctrl-c to stop"))
	for {
		select {
		case <-sig:
			fmt.Println()
			return nil
		case <-ticker.C:
			drawMeters(engine)
		}
	}
}

func listDevices() error {
	if err := capture.Initialize(); err != nil {
		return err
	}
	defer capture.Terminate()

	devices, err := capture.List()
	if err != nil {
		return err
	}
	for _, d := range devices {
		marker := "  "
		if d.IsDefaultInput {
			marker = "* "
		}
		fmt.Printf("%s%3d  %-40s in:%-2d out:%-2d %.0f Hz\n",
			marker, d.ID, d.Name, d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate)
	}
	return nil
}

func drawMeters(engine *livemix.Engine) {
	t := engine.Telemetry()
	var b strings.Builder

	master := t.BassMaster() + t.MidMaster() + t.HighMaster()
	b.WriteString(labelStyle.Render("master"))
	b.WriteString(meter(master / 3))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  hue %.0f°", t.Hue())))
	b.WriteByte('\n')

	for _, ch := range engine.SourcesSnapshot() {
		b.WriteString(labelStyle.Render(ch.Label))
		b.WriteString(meter(t.PeakLevel(ch.ID)))
		var tags []string
		if ch.Muted {
			tags = append(tags, "mute")
		}
		if ch.Solo {
			tags = append(tags, "solo")
		}
		if ch.CrossfadeGroup != "neutral" {
			tags = append(tags, "group "+ch.CrossfadeGroup)
		}
		if len(tags) > 0 {
			b.WriteString(dimStyle.Render("  " + strings.Join(tags, " ")))
		}
		b.WriteByte('\n')
	}
	fmt.Print(b.String())
}

// meter renders a 30-cell level bar; the top fifth turns red.
func meter(level float64) string {
	const cells = 30
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	lit := int(level * cells)
	var b strings.Builder
	for i := 0; i < cells; i++ {
		switch {
		case i < lit && i >= cells*4/5:
			b.WriteString(meterHot.Render("█"))
		case i < lit:
			b.WriteString(meterOn.Render("█"))
		default:
			b.WriteString(meterOff.Render("░"))
		}
	}
	return b.String()
}
