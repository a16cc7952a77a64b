package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/modsmith/modsmith/pkg/errors"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", formatError(err))
		os.Exit(1)
	}
}

// formatError renders structured errors without their code prefix for
// end users; codes remain visible in logs at higher verbosity.
func formatError(err error) string {
	var msErr *errors.ModsmithError
	if stderrors.As(err, &msErr) {
		return msErr.Message
	}
	return err.Error()
}
