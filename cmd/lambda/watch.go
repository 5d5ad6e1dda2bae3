package main

import (
	"fmt"
	"lambda-lang/internal/watch"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ---- watch command ----

func (a *app) cmdWatch(filename string) error {
	if _, err := os.Stat(filename); err != nil {
		return fmt.Errorf("cannot watch %s: %w", filename, err)
	}

	a.runOnce(filename)

	w, err := watch.New([]string{filename}, watch.DefaultDelay, func([]string) error {
		fmt.Fprintf(os.Stdout, "%s\n", traceColor.Sprintf("--- %s changed, running again (%s) ---",
			filename, time.Now().Format("15:04:05")))
		a.runOnce(filename)
		return nil
	}, a.log)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	a.log.Info("watching", zap.String("file", filename))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	return nil
}

// runOnce evaluates filename in a fresh interpreter and reports any error.
// Watch mode has no terminal input, so INPUT() sees end of input.
func (a *app) runOnce(filename string) {
	source, err := readFile(filename)
	if err != nil {
		printError(os.Stderr, err)
		return
	}
	interp := a.newInterpreter(os.Stdout, strings.NewReader(""))
	if _, err := interp.Run(filename, source); err != nil {
		printError(os.Stderr, err)
	}
}
