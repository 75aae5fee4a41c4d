package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
)

// supervisor relays the JSON log lines of a child process and collects
// its panic output, if any, for the final fatal entry.
type supervisor struct {
	out        io.Writer
	fdlLogger  zerolog.Logger
	foundPanic bool
	panicLogs  strings.Builder
}

func newSupervisor(out io.Writer) *supervisor {
	return &supervisor{
		out:       out,
		fdlLogger: NewLogger("Logs wrapper"),
	}
}

// WrapProcess runs executable with arg, relays its stderr to stdout and
// exits with its exit code.
func WrapProcess(executable string, arg ...string) {
	sup := newSupervisor(os.Stdout)
	defer handlePanic(sup.fdlLogger)

	r, w, err := os.Pipe()
	if err != nil {
		sup.fdlLogger.Fatal().Err(err).Msg("Could not create pipe for logs")
	}

	cmd := exec.Command(executable, arg...)
	cmd.Stderr = w
	cmd.Stdout = os.Stdout

	if err = cmd.Start(); err != nil {
		sup.fdlLogger.Fatal().Err(err).Msg("Could not launch main process")
	}
	exitCodeCh := make(chan int)
	logsCh := make(chan []byte)

	go waitForCommandToExit(cmd, w, sup.fdlLogger, exitCodeCh)
	go collectLogs(r, sup.fdlLogger, logsCh)

	exitCode, pending := 0, true
	for pending || logsCh != nil {
		select {
		case exitCode = <-exitCodeCh:
			pending = false
		case line, ok := <-logsCh:
			if !ok {
				logsCh = nil
				continue
			}
			sup.handleLogLine(line)
		}
	}
	os.Exit(sup.exit(exitCode))
}

func waitForCommandToExit(cmd *exec.Cmd, w io.Closer, fdlLogger zerolog.Logger, exitCodeCh chan<- int) {
	defer handlePanic(fdlLogger)
	err := cmd.Wait()
	_ = w.Close()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		exitCodeCh <- 0
	case errors.As(err, &exitErr):
		exitCodeCh <- exitErr.ExitCode()
	default:
		exitCodeCh <- 1
	}
}

func collectLogs(r io.Reader, fdlLogger zerolog.Logger, logsCh chan<- []byte) {
	defer handlePanic(fdlLogger)
	defer close(logsCh)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		logsCh <- line
	}
	if err := scanner.Err(); err != nil {
		fdlLogger.Error().Err(err).Msg("Error scanning piped main process's stderr")
	}
}

// exit logs the outcome of the child and returns the code to exit with.
func (sup *supervisor) exit(exitCode int) int {
	if exitCode == 0 {
		sup.fdlLogger.Info().Msg("Exited with code 0")
		return 0
	}
	sup.fdlLogger.Error().
		Err(errors.New(sup.panicLogs.String())).
		Msgf("Panicked and exited with code: %d", exitCode)
	return exitCode
}

func (sup *supervisor) handleLogLine(line []byte) {
	if !sup.foundPanic && strings.HasPrefix(string(line), "panic") {
		sup.foundPanic = true
	}
	switch {
	case len(line) == 0:
	case sup.foundPanic:
		sup.panicLogs.Write(line)
		sup.panicLogs.WriteByte('\n')
	case isJSON(line):
		_, _ = fmt.Fprintln(sup.out, string(line))
	default:
		sup.fdlLogger.Error().Msgf("Got log line that is not JSON formatted: '%s'", line)
	}
}

func handlePanic(fdlLogger zerolog.Logger) {
	r := recover()
	if r == nil {
		return
	}
	fdlLogger.Fatal().
		Caller().
		Str("error", fmt.Sprint(r)).
		Str("stack_trace", string(debug.Stack())).
		Msg("Program panicked and exited")
}

func isJSON(b []byte) bool {
	var js json.RawMessage
	err := json.Unmarshal(b, &js)
	return err == nil && js != nil
}
