// ABOUTME: Entry point for the umxconv converter
// ABOUTME: Parses CLI flags and converts an audio file locally or on a conversion server
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Sendspin/umxconv/internal/client"
	"github.com/Sendspin/umxconv/internal/discovery"
	"github.com/Sendspin/umxconv/internal/protocol"
	"github.com/Sendspin/umxconv/internal/ui"
	"github.com/Sendspin/umxconv/internal/version"
	"github.com/Sendspin/umxconv/pkg/audio"
	"github.com/Sendspin/umxconv/pkg/audio/decode"
	"github.com/Sendspin/umxconv/pkg/convert"
)

var (
	inPath      = flag.String("in", "", "Input audio file (WAV, MP3, FLAC, Ogg Opus or raw PCM); may also be given as the first argument")
	outDir      = flag.String("out", ".", "Output directory")
	format      = flag.String("format", convert.DefaultFormat, "Output format: it or umx")
	bitDepth    = flag.Int("bit-depth", convert.DefaultBitDepth, "Sample bit depth: 8 or 16")
	sampleRate  = flag.Int("rate", convert.DefaultSampleRate, "Sample rate in Hz")
	stereo      = flag.Bool("stereo", convert.DefaultStereo, "Keep left and right as separate samples (false mixes to mono)")
	extra       = flag.Int("extra", convert.DefaultExtraChannels, "Additional tracker channels per sample")
	name        = flag.String("name", "", "Output and package name (default: input file name)")
	codec       = flag.String("codec", "", "Force input codec: wav, mp3, flac, opus or pcm (default: detect)")
	pcmRate     = flag.Int("pcm-rate", 44100, "Raw PCM sample rate (with -codec pcm)")
	pcmChannels = flag.Int("pcm-channels", 2, "Raw PCM channel count (with -codec pcm)")
	pcmBits     = flag.Int("pcm-bits", 16, "Raw PCM bit depth, 16 or 24 (with -codec pcm)")
	serverAddr  = flag.String("server", "", "Convert on a remote server at host:port")
	discover    = flag.Bool("discover", false, "Find a conversion server via mDNS and convert there")
	logFile     = flag.String("log-file", "umxconv.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// result is what a finished conversion reports
type result struct {
	filename string
	size     int
	duration float64
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}

	path := *inPath
	if path == "" {
		path = flag.Arg(0)
	}
	if path == "" {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <input>\n", version.Product)
		flag.PrintDefaults()
		os.Exit(2)
	}

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	log.Printf("%s %s converting %s", version.Product, version.Version, path)

	input, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}

	cfg := convert.Config{
		Format:        *format,
		BitDepth:      *bitDepth,
		SampleRate:    *sampleRate,
		Stereo:        *stereo,
		ExtraChannels: *extra,
		Name:          *name,
	}
	if cfg.Name == "" {
		cfg.Name = baseName(path)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	remote := *serverAddr != "" || *discover
	source := "local"
	if remote {
		source = "remote"
	}

	var res result
	if useTUI {
		res, err = runWithTUI(ctx, stop, path, source, input, cfg, remote)
	} else {
		res, err = runConversion(ctx, input, cfg, remote, func(convert.Stage) {}, func(string) {})
	}
	if err != nil {
		log.Printf("Conversion failed: %v", err)
		fmt.Fprintf(os.Stderr, "conversion failed: %v\n", err)
		os.Exit(1)
	}

	log.Printf("Wrote %s (%d bytes, %.2fs)", res.filename, res.size, res.duration)
	if useTUI {
		fmt.Printf("Wrote %s\n", res.filename)
	}
}

// runWithTUI runs the conversion in the background while the TUI shows progress
func runWithTUI(ctx context.Context, cancel context.CancelFunc, path, source string, input []byte, cfg convert.Config, remote bool) (result, error) {
	prog := ui.NewProgram(ui.Job{
		Input:  filepath.Base(path),
		Source: source,
		Config: cfg,
		Save:   true,
	})

	type outcome struct {
		res result
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		res, err := runConversion(ctx, input, cfg, remote, prog.Stage, prog.Source)
		prog.Done(filepath.Join(*outDir, res.filename), res.size, res.duration, err)
		done <- outcome{res, err}
	}()

	final, err := prog.Run()
	if err != nil {
		cancel()
		<-done
		return result{}, err
	}
	if final.Quitting() && !final.Done() {
		cancel()
	}

	out := <-done
	return out.res, out.err
}

// runConversion converts input locally or remotely and saves the output
func runConversion(ctx context.Context, input []byte, cfg convert.Config, remote bool, progress func(convert.Stage), setSource func(string)) (result, error) {
	saver := convert.DirSaver{Dir: *outDir}

	if remote {
		return convertRemote(ctx, input, cfg, saver, progress, setSource)
	}

	opts := []convert.Option{
		convert.WithProgress(progress),
		convert.WithLogger(log.Default()),
	}
	if *codec != "" {
		dec, err := inputDecoder(*codec)
		if err != nil {
			return result{}, err
		}
		defer dec.Close()
		opts = append(opts, convert.WithDecoder(dec))
	}

	out, err := convert.New(opts...).ConvertAndSave(ctx, input, cfg, saver)
	if err != nil {
		return result{}, err
	}
	return result{filename: out.Filename, size: len(out.Data), duration: out.Duration}, nil
}

// inputDecoder builds the decoder forced by -codec
func inputDecoder(codec string) (decode.Decoder, error) {
	if strings.EqualFold(codec, "pcm") {
		return decode.NewPCM(audio.Format{
			Codec:      "pcm",
			SampleRate: *pcmRate,
			Channels:   *pcmChannels,
			BitDepth:   *pcmBits,
		})
	}
	return decode.New(strings.ToLower(codec))
}

// convertRemote sends input to a conversion server and saves the reply
func convertRemote(ctx context.Context, input []byte, cfg convert.Config, saver convert.Saver, progress func(convert.Stage), setSource func(string)) (result, error) {
	if *codec != "" {
		return result{}, errors.New("-codec is not supported with remote conversion")
	}

	addr := *serverAddr
	if addr == "" {
		log.Printf("Starting server discovery...")
		mgr := discovery.NewManager(discovery.Config{})
		if err := mgr.Browse(); err != nil {
			return result{}, fmt.Errorf("discovery failed: %w", err)
		}
		server, err := mgr.First(ctx, 10*time.Second)
		mgr.Stop()
		if err != nil {
			return result{}, err
		}
		addr = server.Addr()
		setSource(fmt.Sprintf("%s (%s)", server.Name, addr))
		log.Printf("Using server %s at %s", server.Name, addr)
	} else {
		setSource(addr)
	}

	c := client.NewClient(client.Config{ServerAddr: addr})
	if err := c.Connect(ctx); err != nil {
		return result{}, fmt.Errorf("connection failed: %w", err)
	}
	defer c.Close()

	progress(convert.StageDecode)
	stereo := cfg.Stereo
	extraChannels := cfg.ExtraChannels
	res, err := c.Convert(ctx, input, protocol.ConvertRequest{
		Format:        cfg.Format,
		BitDepth:      cfg.BitDepth,
		SampleRate:    cfg.SampleRate,
		Stereo:        &stereo,
		ExtraChannels: &extraChannels,
		Name:          cfg.Name,
	})
	if err != nil {
		return result{}, err
	}

	progress(convert.StageSave)
	if err := saver.Save(res.Filename, res.Data); err != nil {
		return result{}, fmt.Errorf("failed to save %s: %w", res.Filename, err)
	}
	progress(convert.StageDone)

	return result{filename: res.Filename, size: len(res.Data), duration: res.Duration}, nil
}

// baseName returns the file name without directory or extension
func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
