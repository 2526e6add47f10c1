package cmd

import (
	"errors"

	"github.com/tgberrios/datasync/internal/errkind"
)

// Exit codes per the CLI surface contract: 0 success, 1 generic failure,
// 2 misconfiguration, 3 unrecoverable source/target error.
const (
	exitSuccess         = 0
	exitGenericFailure  = 1
	exitMisconfigured   = 2
	exitUnrecoverableIO = 3
)

// errMisconfiguration marks an error as a configuration problem (bad
// config file, unknown connection name, missing required field) rather
// than a runtime failure; wrap with fmt.Errorf("...: %w", errMisconfiguration).
var errMisconfiguration = errors.New("misconfiguration")

// exitCodeFor maps a command's returned error to the process exit code.
// nil never reaches here — Execute only calls this after a non-nil
// cobra.Command.Execute error.
func exitCodeFor(err error) int {
	if err == nil {
		return exitSuccess
	}
	if errors.Is(err, errMisconfiguration) {
		return exitMisconfigured
	}
	var ke *errkind.Error
	if errors.As(err, &ke) {
		switch ke.Kind {
		case errkind.Permanent, errkind.SchemaViolation:
			return exitUnrecoverableIO
		}
	}
	return exitGenericFailure
}
