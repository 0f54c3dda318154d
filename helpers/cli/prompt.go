// Package cli runs line oriented command loop: interactive prompt with
// completion on terminal, plain line reader for piped stdin.
package cli

import (
	"bufio"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/c-bata/go-prompt"
	"github.com/easygraphs/easygraphs-device/log2"
	"github.com/mattn/go-isatty"
)

type Completer func(d prompt.Document) []prompt.Suggest

// NewCompleter fuzzy matches first word against suggests.
func NewCompleter(suggests []prompt.Suggest) Completer {
	return func(d prompt.Document) []prompt.Suggest {
		return prompt.FilterFuzzy(suggests, d.GetWordBeforeCursor(), true)
	}
}

// MainLoop returns when piped input ends. Interactive session ends by signal.
func MainLoop(log *log2.Log, tag string, exec func(line string), complete Completer) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	go func() {
		s := <-signalCh
		log.Infof("%s: signal=%v exit", tag, s)
		os.Exit(1)
	}()

	if isatty.IsTerminal(os.Stdin.Fd()) {
		prompt.New(exec, prompt.Completer(complete),
			prompt.OptionPrefix(tag+"> "),
			prompt.OptionTitle(tag),
		).Run()
		return
	}
	if err := ReadLines(os.Stdin, exec); err != nil {
		log.Fatal(err)
	}
}

// ReadLines feeds trimmed non-empty lines to exec.
func ReadLines(r io.Reader, exec func(line string)) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		exec(line)
	}
	return scanner.Err()
}
