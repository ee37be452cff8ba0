package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		var exit *exitError
		switch {
		case errors.As(err, &exit) && exit.silent:
		case errors.Is(err, context.Canceled):
		default:
			fmt.Fprintln(os.Stderr, "vocalprep:", err)
		}
		os.Exit(1)
	}
}

// exitError marks a command that finished its work but must exit non-zero.
type exitError struct {
	msg    string
	silent bool
}

func (e *exitError) Error() string {
	return e.msg
}
