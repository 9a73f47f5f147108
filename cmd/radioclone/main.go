// Command radioclone downloads a radio's memory image over its clone cable
// into a file, or uploads a previously downloaded file back to the radio.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/doismellburning/radioclone/channel"
	"github.com/doismellburning/radioclone/codec"
	"github.com/doismellburning/radioclone/engine"
	"github.com/doismellburning/radioclone/internal/config"
	"github.com/doismellburning/radioclone/internal/rlog"
	"github.com/doismellburning/radioclone/protocol"
	"github.com/doismellburning/radioclone/transport"
)

func main() {
	var (
		port       = pflag.StringP("port", "p", "", "Serial device path, e.g. /dev/ttyUSB0.")
		model      = pflag.StringP("model", "m", "", "Model key (vendor/model) from cmd/radioclone-list.")
		baud       = pflag.IntP("baud", "b", 0, "Baud rate override (0 uses the protocol default).")
		out        = pflag.StringP("out", "o", "", "Output file for download, input file for upload.")
		configFile = pflag.StringP("config-file", "c", config.DefaultPath, "Configuration file name.")
		help       = pflag.BoolP("help", "h", false, "Display help text.")
	)
	pflag.Parse()

	if *help || pflag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: radioclone [flags] download|upload")
		pflag.PrintDefaults()
		if *help {
			os.Exit(0)
		}
		os.Exit(2)
	}
	action := pflag.Arg(0)

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *port == "" {
		*port = cfg.Port
	}
	if *baud == 0 {
		*baud = cfg.Baud
	}
	if *model == "" {
		*model = cfg.Model
	}
	if *out == "" {
		fmt.Fprintln(os.Stderr, "radioclone: -o/--out is required")
		os.Exit(2)
	}

	logger := rlog.New("radioclone", cfg.LogLevelOrDefault())

	reg, err := protocol.Load()
	if err != nil {
		logger.Error("failed to load protocol registry", "err", err)
		os.Exit(1)
	}
	resolved, err := reg.Resolve(*model)
	if err != nil {
		logger.Error("failed to resolve model", "model", *model, "err", err)
		os.Exit(1)
	}
	desc := resolved.Protocol
	if *baud > 0 {
		desc.Baud = *baud
	}

	settings := transport.Settings{Baud: desc.Baud}
	serial, err := transport.OpenSerial(*port, settings)
	if err != nil {
		logger.Error("failed to open port", "port", *port, "err", err)
		os.Exit(1)
	}
	defer serial.Close()

	eng := engine.New(serial, logger)
	cancel := &engine.CancelFlag{}
	progress := func(p engine.Progress) {
		logger.Info("progress", "phase", p.Phase, "bytes_done", p.BytesDone, "bytes_total", p.BytesTotal)
	}

	switch action {
	case "download":
		runDownload(eng, desc, cancel, progress, *out, logger)
	case "upload":
		runUpload(eng, desc, cancel, progress, *out, logger)
	default:
		fmt.Fprintf(os.Stderr, "radioclone: unknown action %q (want download or upload)\n", action)
		os.Exit(2)
	}
}

func runDownload(eng *engine.Engine, desc protocol.ProtocolDescriptor, cancel *engine.CancelFlag, progress func(engine.Progress), out string, logger rlog.Logger) {
	start := time.Now()
	raw, header, err := eng.Download(desc, cancel, progress)
	if err != nil {
		logger.Error("download failed", "err", err)
		os.Exit(1)
	}
	if err := os.WriteFile(out, raw, 0o644); err != nil {
		logger.Error("failed to write output file", "path", out, "err", err)
		os.Exit(1)
	}
	logger.Info("download complete", "bytes", len(raw), "elapsed", time.Since(start), "path", out)

	channels := codec.Decode(raw, desc.MemoryFormat)
	img := channel.Image{Raw: raw, Header: header, Array: channel.NewArrayFromChannels(channels)}
	logger.Info("decoded channels", "count", countNonEmpty(img.Array.All()), "total", img.Array.Len())
}

func runUpload(eng *engine.Engine, desc protocol.ProtocolDescriptor, cancel *engine.CancelFlag, progress func(engine.Progress), in string, logger rlog.Logger) {
	raw, err := os.ReadFile(in)
	if err != nil {
		logger.Error("failed to read input file", "path", in, "err", err)
		os.Exit(1)
	}

	start := time.Now()
	if err := eng.Upload(desc, raw, cancel, progress); err != nil {
		logger.Error("upload failed", "err", err)
		os.Exit(1)
	}
	logger.Info("upload complete", "bytes", len(raw), "elapsed", time.Since(start))
}

func countNonEmpty(channels []channel.Channel) int {
	n := 0
	for _, c := range channels {
		if !c.Empty {
			n++
		}
	}
	return n
}
