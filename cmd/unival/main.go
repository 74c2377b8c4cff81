// unival - command line tool for unival text
//
// Usage:
//
//	unival fmt [--mode MODE] [files...]        Reformat values
//	unival json [--pretty] [files...]          Print values as JSON
//	unival yaml [file]                         Print a value as YAML
//	unival from-json [file]                    Convert JSON to unival text
//	unival from-yaml [file]                    Convert YAML to unival text
//	unival get --path PATH [file]              Print the value at PATH
//	unival set --path PATH --value V [file]    Replace the value at PATH
//	unival hash [files...]                     Print value fingerprints
//	unival frames encode [files...]            Send values as a frame stream
//	unival frames decode [file]                Replay a frame stream
//	unival env                                 Print the configuration
//
// Inputs may be gzip or zstd compressed. A missing file or "-" is stdin.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Neumenon/unival/chk"
	"github.com/Neumenon/unival/config"
	"github.com/Neumenon/unival/log"
	"github.com/Neumenon/unival/stream"
	"github.com/Neumenon/unival/unival"
)

const version = "0.3.0"

type FmtCmd struct {
	Mode  string   `arg:"-m,--mode" help:"compact, pretty, json or json-pretty (default from UNIVAL_MODE)"`
	Files []string `arg:"positional" help:"input files"`
}

type JSONCmd struct {
	Pretty bool     `arg:"-p,--pretty" help:"indent the output"`
	Files  []string `arg:"positional" help:"input files"`
}

type FileCmd struct {
	Mode string `arg:"-m,--mode" help:"output mode (default from UNIVAL_MODE)"`
	File string `arg:"positional" default:"-" help:"input file"`
}

type GetCmd struct {
	Path string `arg:"-p,--path,required" help:"path such as users[0].name or {1}"`
	Mode string `arg:"-m,--mode" help:"output mode (default from UNIVAL_MODE)"`
	File string `arg:"positional" default:"-" help:"input file"`
}

type SetCmd struct {
	Path   string `arg:"-p,--path,required" help:"path of the value to replace"`
	Value  string `arg:"-v,--value,required" help:"new value as unival text"`
	Mode   string `arg:"-m,--mode" help:"output mode (default from UNIVAL_MODE)"`
	Frames bool   `arg:"--frames" help:"write the original and the edit as a frame stream"`
	File   string `arg:"positional" default:"-" help:"input file"`
}

type HashCmd struct {
	Files []string `arg:"positional" help:"input files"`
}

type EncodeCmd struct {
	SID      uint64   `arg:"--sid" default:"1" help:"stream ID"`
	Compress string   `arg:"-z,--compress" help:"none, gzip or zstd (default from UNIVAL_COMPRESS)"`
	Files    []string `arg:"positional" help:"successive values of the stream"`
}

type DecodeCmd struct {
	Raw         bool   `arg:"--raw" help:"print frame headers and payloads instead of replaying"`
	SkipCorrupt bool   `arg:"--skip-corrupt" help:"skip malformed frames instead of stopping"`
	Mode        string `arg:"-m,--mode" help:"output mode (default from UNIVAL_MODE)"`
	File        string `arg:"positional" default:"-" help:"frame stream"`
}

type FramesCmd struct {
	Encode *EncodeCmd `arg:"subcommand:encode" help:"send values as a frame stream"`
	Decode *DecodeCmd `arg:"subcommand:decode" help:"replay a frame stream"`
}

type EnvCmd struct{}

type args struct {
	Fmt      *FmtCmd    `arg:"subcommand:fmt" help:"reformat values"`
	JSON     *JSONCmd   `arg:"subcommand:json" help:"print values as JSON"`
	YAML     *FileCmd   `arg:"subcommand:yaml" help:"print a value as YAML"`
	FromJSON *FileCmd   `arg:"subcommand:from-json" help:"convert JSON to unival text"`
	FromYAML *FileCmd   `arg:"subcommand:from-yaml" help:"convert YAML to unival text"`
	Get      *GetCmd    `arg:"subcommand:get" help:"print the value at a path"`
	Set      *SetCmd    `arg:"subcommand:set" help:"replace the value at a path"`
	Hash     *HashCmd   `arg:"subcommand:hash" help:"print value fingerprints"`
	Frames   *FramesCmd `arg:"subcommand:frames" help:"frame streams"`
	Env      *EnvCmd    `arg:"subcommand:env" help:"print the configuration as a shell script"`
}

func (args) Version() string {
	return "unival " + version
}

func (args) Epilogue() string {
	var sb strings.Builder
	sb.WriteString("Environment variables:\n")
	(&config.C{}).Usage(&sb)
	return sb.String()
}

func main() {
	cfg, err := config.Load()
	if chk.F(err) {
		os.Exit(2)
	}
	cfg.Apply()

	var a args
	p := arg.MustParse(&a)
	if p.Subcommand() == nil || (a.Frames != nil && a.Frames.Encode == nil && a.Frames.Decode == nil) {
		p.Fail("missing subcommand")
	}
	if err := run(context.Background(), &a, cfg, os.Stdout); err != nil {
		log.E.Ln(err)
		os.Exit(1)
	}
}

// run executes the selected subcommand, writing results to out.
func run(ctx context.Context, a *args, cfg *config.C, out io.Writer) error {
	switch {
	case a.Fmt != nil:
		mode, err := outputMode(a.Fmt.Mode, cfg)
		if err != nil {
			return err
		}
		return eachFile(ctx, cfg, a.Fmt.Files, out, func(name string) ([]byte, error) {
			v, err := readValue(name)
			if err != nil {
				return nil, err
			}
			return render(v, mode)
		})

	case a.JSON != nil:
		mode := unival.JSONCompact
		if a.JSON.Pretty {
			mode = unival.JSONPretty
		}
		return eachFile(ctx, cfg, a.JSON.Files, out, func(name string) ([]byte, error) {
			v, err := readValue(name)
			if err != nil {
				return nil, err
			}
			return render(v, mode)
		})

	case a.YAML != nil:
		v, err := readValue(a.YAML.File)
		if err != nil {
			return err
		}
		text, err := unival.ToYAML(v)
		if err != nil {
			return err
		}
		_, err = out.Write(text)
		return err

	case a.FromJSON != nil:
		return convert(a.FromJSON, cfg, out, unival.FromJSON)

	case a.FromYAML != nil:
		return convert(a.FromYAML, cfg, out, unival.FromYAML)

	case a.Get != nil:
		return cmdGet(a.Get, cfg, out)

	case a.Set != nil:
		return cmdSet(a.Set, cfg, out)

	case a.Hash != nil:
		return eachFile(ctx, cfg, a.Hash.Files, out, func(name string) ([]byte, error) {
			v, err := readValue(name)
			if err != nil {
				return nil, err
			}
			h, ok := stream.Fingerprint(v)
			if !ok {
				return nil, errors.Errorf("%s: value cannot be printed", name)
			}
			return []byte(stream.HashToHex(h) + "  " + name + "\n"), nil
		})

	case a.Frames != nil && a.Frames.Encode != nil:
		return cmdEncode(a.Frames.Encode, cfg, out)

	case a.Frames != nil && a.Frames.Decode != nil:
		return cmdDecode(a.Frames.Decode, cfg, out)

	case a.Env != nil:
		cfg.PrintEnv(out)
		return nil

	default:
		return errors.New("missing subcommand")
	}
}

func outputMode(flag string, cfg *config.C) (unival.Mode, error) {
	if flag == "" {
		return cfg.OutputMode(), nil
	}
	mode, ok := unival.ParseMode(flag)
	if !ok {
		return mode, errors.Errorf("unknown mode %q", flag)
	}
	return mode, nil
}

func readAll(name string) ([]byte, error) {
	r, err := stream.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() { chk.E(r.Close()) }()
	data, err := io.ReadAll(r)
	return data, errors.Wrap(err, name)
}

func readValue(name string) (unival.Value, error) {
	r, err := stream.Open(name)
	if err != nil {
		return unival.Error(), err
	}
	defer func() { chk.E(r.Close()) }()
	v, err := stream.ReadValue(r)
	if err != nil {
		return v, errors.Wrap(err, name)
	}
	return v, nil
}

func render(v unival.Value, mode unival.Mode) ([]byte, error) {
	text, ok := unival.AppendText(nil, v, mode)
	if !ok {
		return nil, errors.Errorf("value cannot be printed in %s mode", mode)
	}
	return append(text, '\n'), nil
}

// eachFile runs fn over the files on cfg.Workers goroutines and writes the
// results to out in argument order. No files means stdin.
func eachFile(ctx context.Context, cfg *config.C, files []string, out io.Writer,
	fn func(name string) ([]byte, error)) error {

	if len(files) == 0 {
		files = []string{"-"}
	}
	results := make([][]byte, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, name := range files {
		g.Go(func() (err error) {
			if err = ctx.Err(); err != nil {
				return
			}
			log.D.F("processing %s", name)
			results[i], err = fn(name)
			return
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, r := range results {
		if _, err := out.Write(r); err != nil {
			return errors.Wrap(err, "write output")
		}
	}
	return nil
}

func convert(c *FileCmd, cfg *config.C, out io.Writer, from func([]byte) (unival.Value, error)) error {
	mode, err := outputMode(c.Mode, cfg)
	if err != nil {
		return err
	}
	data, err := readAll(c.File)
	if err != nil {
		return err
	}
	v, err := from(data)
	if err != nil {
		return errors.Wrap(err, c.File)
	}
	text, err := render(v, mode)
	if err != nil {
		return err
	}
	_, err = out.Write(text)
	return err
}

func cmdGet(c *GetCmd, cfg *config.C, out io.Writer) error {
	mode, err := outputMode(c.Mode, cfg)
	if err != nil {
		return err
	}
	path, err := unival.ParsePath(c.Path)
	if err != nil {
		return err
	}
	v, err := readValue(c.File)
	if err != nil {
		return err
	}
	found := v.At(path...)
	if found.IsError() {
		return errors.Errorf("%s: no value at %s", c.File, c.Path)
	}
	text, err := render(found, mode)
	if err != nil {
		return err
	}
	_, err = out.Write(text)
	return err
}

func cmdSet(c *SetCmd, cfg *config.C, out io.Writer) error {
	mode, err := outputMode(c.Mode, cfg)
	if err != nil {
		return err
	}
	path, err := unival.ParsePath(c.Path)
	if err != nil {
		return err
	}
	x := unival.Parse(c.Value)
	if x.IsError() {
		return errors.Errorf("--value %q is not unival text", c.Value)
	}
	v, err := readValue(c.File)
	if err != nil {
		return err
	}
	edits := []stream.Edit{stream.SetAt(path, x)}
	updated, err := stream.ApplyEdits(v, edits)
	if err != nil {
		return errors.Wrapf(err, "set %s", c.Path)
	}
	if c.Frames {
		w := newFrameWriter(out, cfg)
		s := stream.NewSender(w, 1)
		if err = s.Send(v); err != nil {
			return err
		}
		if err = s.Send(updated); err != nil {
			return err
		}
		return s.Close()
	}
	text, err := render(updated, mode)
	if err != nil {
		return err
	}
	_, err = out.Write(text)
	return err
}

func newFrameWriter(out io.Writer, cfg *config.C) *stream.Writer {
	if cfg.CRC {
		return stream.NewWriterWithCRC(out)
	}
	return stream.NewWriter(out)
}

func cmdEncode(c *EncodeCmd, cfg *config.C, out io.Writer) (err error) {
	compress := c.Compress
	if compress == "" {
		compress = cfg.Compress
	}
	zw, err := stream.Compress(out, compress)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := zw.Close(); err == nil {
			err = cerr
		}
	}()

	files := c.Files
	if len(files) == 0 {
		files = []string{"-"}
	}
	s := stream.NewSender(newFrameWriter(zw, cfg), c.SID)
	for _, name := range files {
		v, err := readValue(name)
		if err != nil {
			return err
		}
		if err = s.Send(v); err != nil {
			return errors.Wrap(err, name)
		}
	}
	log.D.F("sent %d frames on sid %d", s.Seq(), c.SID)
	return s.Close()
}

func cmdDecode(c *DecodeCmd, cfg *config.C, out io.Writer) error {
	mode, err := outputMode(c.Mode, cfg)
	if err != nil {
		return err
	}
	r, err := stream.Open(c.File)
	if err != nil {
		return err
	}
	defer func() { chk.E(r.Close()) }()

	var opts []stream.ReaderOption
	if c.SkipCorrupt {
		opts = append(opts, stream.WithSkipCorrupt())
	}
	reader := stream.NewReader(r, opts...)
	tracker := stream.NewTracker()
	var n, rejected int
	for f, err := range reader.All() {
		if err != nil {
			return errors.Wrapf(err, "after %d frames", n)
		}
		n++
		if c.Raw {
			printFrame(out, n, f)
			continue
		}
		if err := tracker.Apply(f); err != nil {
			rejected++
			log.W.F("%v", stream.ErrorEventFor(f.SID, f.Seq, err))
		}
	}
	log.D.F("%d frames decoded", n)
	if c.Raw {
		return nil
	}

	for _, sid := range tracker.SIDs() {
		s := tracker.Get(sid)
		if !s.HasValue {
			continue
		}
		text, err := render(s.Value, mode)
		if err != nil {
			return err
		}
		status := ""
		if s.Final {
			status = " final"
		}
		if _, err = fmt.Fprintf(out, "sid %d seq %d%s: %s", sid, s.LastSeq, status, text); err != nil {
			return err
		}
	}
	if rejected > 0 {
		return errors.Errorf("%d of %d frames rejected", rejected, n)
	}
	return nil
}

func printFrame(out io.Writer, n int, f *stream.Frame) {
	fmt.Fprintf(out, "--- Frame %d ---\n", n)
	fmt.Fprintf(out, "  sid=%d seq=%d kind=%s len=%d\n", f.SID, f.Seq, f.Kind, len(f.Payload))
	if f.CRC != nil {
		fmt.Fprintf(out, "  crc=%08x\n", *f.CRC)
	}
	if f.Base != nil {
		fmt.Fprintf(out, "  base=%s\n", stream.HashToHex(*f.Base))
	}
	if f.Final {
		fmt.Fprintf(out, "  final=true\n")
	}
	payload := string(f.Payload)
	if len(payload) > 200 {
		payload = payload[:200] + "..."
	}
	if len(payload) > 0 {
		fmt.Fprintf(out, "  payload: %s\n", payload)
	}
}
