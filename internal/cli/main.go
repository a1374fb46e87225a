package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/forPelevin/beepsub/internal/types"
	"github.com/forPelevin/beepsub/internal/usecase"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present
	os.Exit(Execute(os.Args[1:], os.Stdout, os.Stderr))
}

// Execute runs the command line and returns the process exit code: 0 on
// success, 2 for caller errors (bad input, unknown session), 1 otherwise.
func Execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return 0
	}
	p := newPrinter(stderr)
	if st, ok := usecase.FailedStage(err); ok {
		var se *usecase.StageError
		errors.As(err, &se)
		p.fail("%s failed: %v", st, se.Err)
	} else {
		p.fail("%v", err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	if types.ClientError(err) || errors.Is(err, errUsage) {
		return 2
	}
	return 1
}

var errUsage = errors.New("usage")

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}
