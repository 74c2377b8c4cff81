// Package lol (log of location) prints leveled log lines with a timestamp,
// a colored level tag and the source location of the call, so a message in
// a long run of output can be traced back to the code that wrote it.
package lol

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/pkg/errors"
)

const (
	Off = iota
	Fatal
	Error
	Warn
	Info
	Debug
	Trace
)

var LevelNames = []string{
	"off",
	"fatal",
	"error",
	"warn",
	"info",
	"debug",
	"trace",
}

type (
	// Ln prints its arguments separated by spaces.
	Ln func(a ...any)
	// F prints like fmt.Printf.
	F func(format string, a ...any)
	// S prints a spew dump of its arguments.
	S func(a ...any)
	// C takes a closure so the message is only built when the level is on.
	C func(closure func() string)
	// Chk prints e if it is not nil and reports whether it was.
	Chk func(e error) bool
	// Err builds an error, logs it and returns it.
	Err func(format string, a ...any) error

	// LevelPrinter is the set of printers of one level.
	LevelPrinter struct {
		Ln
		F
		S
		C
		Chk
		Err
	}

	// LevelSpec is the name, ID and colorizer for a log level.
	LevelSpec struct {
		ID        int
		Name      string
		Colorizer func(a ...any) string
	}
)

var (
	// LevelSpecs specifies the id, tag and color-printing function per level.
	LevelSpecs = []LevelSpec{
		{Off, "", NoSprint},
		{Fatal, "FTL", color.New(color.BgRed, color.FgHiWhite).Sprint},
		{Error, "ERR", color.New(color.FgHiRed).Sprint},
		{Warn, "WRN", color.New(color.FgHiYellow).Sprint},
		{Info, "INF", color.New(color.FgHiGreen).Sprint},
		{Debug, "DBG", color.New(color.FgHiBlue).Sprint},
		{Trace, "TRC", color.New(color.FgHiMagenta).Sprint},
	}

	// NoTimeStamp drops the timestamp from log lines.
	NoTimeStamp atomic.Bool
)

// NoSprint prints nothing.
func NoSprint(a ...any) string { return "" }

// Log is a set of printers, one per level.
type Log struct {
	F, E, W, I, D, T LevelPrinter
}

// Check is the Chk printer of each level.
type Check struct {
	F, E, W, I, D, T Chk
}

// Errorf is the Err printer of each level.
type Errorf struct {
	F, E, W, I, D, T Err
}

// Logger bundles the printers of all levels.
type Logger struct {
	*Log
	*Check
	*Errorf
}

// Level is the most verbose level that is printed.
var Level atomic.Int32

// Main is the logger behind the log, chk and errorf shortcut packages.
var Main = &Logger{}

// output is the writer behind Main. SetOutput swaps its target.
var output = &swapWriter{w: os.Stderr}

type swapWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *swapWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func init() {
	Main.Log, Main.Check, Main.Errorf = New(output)
	SetLoggers(Info)
}

// SetLoggers sets the level by number.
func SetLoggers(level int) {
	if level < Off || level > Trace {
		level = Info
	}
	Level.Store(int32(level))
	Main.Log.T.F("log level %s", LevelSpecs[level].Colorizer(LevelNames[level]))
}

// GetLogLevel returns the number of a level name, or Info if it is unknown.
func GetLogLevel(level string) int {
	for i := range LevelNames {
		if strings.EqualFold(level, LevelNames[i]) {
			return i
		}
	}
	return Info
}

// SetLogLevel sets the level by name. Unknown names are ignored.
func SetLogLevel(level string) {
	for i := range LevelNames {
		if strings.EqualFold(level, LevelNames[i]) {
			SetLoggers(i)
			return
		}
	}
}

// SetOutput redirects the Main logger, and with it the shortcut packages,
// to w.
func SetOutput(w io.Writer) {
	output.mu.Lock()
	defer output.mu.Unlock()
	output.w = w
}

// JoinStrings joins the printed form of each item with spaces.
func JoinStrings(a ...any) string {
	parts := make([]string, len(a))
	for i := range a {
		parts[i] = fmt.Sprint(a[i])
	}
	return strings.Join(parts, " ")
}

var msgCol = color.New(color.FgBlue).Sprint

func printLine(w io.Writer, l int32, text string) {
	fmt.Fprintf(w,
		"%s%s %s %s\n",
		msgCol(TimeStamper()),
		LevelSpecs[l].Colorizer(LevelSpecs[l].Name),
		text,
		msgCol(GetLoc(3)),
	)
}

// GetPrinter returns the printers of level l writing to writer.
func GetPrinter(l int32, writer io.Writer) LevelPrinter {
	return LevelPrinter{
		Ln: func(a ...any) {
			if Level.Load() < l {
				return
			}
			printLine(writer, l, JoinStrings(a...))
		},
		F: func(format string, a ...any) {
			if Level.Load() < l {
				return
			}
			printLine(writer, l, fmt.Sprintf(format, a...))
		},
		S: func(a ...any) {
			if Level.Load() < l {
				return
			}
			printLine(writer, l, spew.Sdump(a...))
		},
		C: func(closure func() string) {
			if Level.Load() < l {
				return
			}
			printLine(writer, l, closure())
		},
		Chk: func(e error) bool {
			if e == nil {
				return false
			}
			if Level.Load() >= l {
				printLine(writer, l, e.Error())
			}
			return true
		},
		Err: func(format string, a ...any) error {
			err := errors.Errorf(format, a...)
			if Level.Load() >= l {
				printLine(writer, l, err.Error())
			}
			return err
		},
	}
}

// GetNullPrinter returns printers that print nothing.
func GetNullPrinter() LevelPrinter {
	return LevelPrinter{
		Ln:  func(a ...any) {},
		F:   func(format string, a ...any) {},
		S:   func(a ...any) {},
		C:   func(closure func() string) {},
		Chk: func(e error) bool { return e != nil },
		Err: func(format string, a ...any) error { return errors.Errorf(format, a...) },
	}
}

// New creates the printers of every level writing to writer.
func New(writer io.Writer) (l *Log, c *Check, errorf *Errorf) {
	l = &Log{
		T: GetPrinter(Trace, writer),
		D: GetPrinter(Debug, writer),
		I: GetPrinter(Info, writer),
		W: GetPrinter(Warn, writer),
		E: GetPrinter(Error, writer),
		F: GetPrinter(Fatal, writer),
	}
	c = &Check{
		F: l.F.Chk,
		E: l.E.Chk,
		W: l.W.Chk,
		I: l.I.Chk,
		D: l.D.Chk,
		T: l.T.Chk,
	}
	errorf = &Errorf{
		F: l.F.Err,
		E: l.E.Err,
		W: l.W.Err,
		I: l.I.Err,
		D: l.D.Err,
		T: l.T.Err,
	}
	return
}

// TimeStamper returns the timestamp prefix of a log line.
func TimeStamper() string {
	if NoTimeStamp.Load() {
		return ""
	}
	return time.Now().Format("2006-01-02T15:04:05.000Z07:00 ")
}

// GetLoc returns the file:line of the caller skip frames up.
func GetLoc(skip int) string {
	_, file, line, _ := runtime.Caller(skip)
	return fmt.Sprintf("%s:%d", file, line)
}
