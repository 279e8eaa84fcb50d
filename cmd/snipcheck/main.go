package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ppiankov/snipcheck/internal/cli"
)

func main() {
	err := cli.Execute()
	if err == nil {
		return
	}

	var exit *cli.ExitError
	if errors.As(err, &exit) {
		if exit.Err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", exit.Err)
		}
		os.Exit(exit.Code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
