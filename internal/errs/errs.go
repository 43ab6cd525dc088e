// Package errs classifies errors into the three tiers the daemon
// recognizes: Fatal, Warning, Recoverable (§7).
package errs

import "fmt"

// Tier is the error-handling classification of a condition.
type Tier int

const (
	TierFatal Tier = iota
	TierWarning
	TierRecoverable
)

// Classified wraps an error with its tier so the caller at the top of
// the loop can decide whether to exit, log, or ignore.
type Classified struct {
	Tier Tier
	Err  error
}

func (c *Classified) Error() string {
	return c.Err.Error()
}

func (c *Classified) Unwrap() error {
	return c.Err
}

// Fatal wraps err as a fatal condition: the process must print
// "FATAL ERROR: ..." to stderr and exit 1.
func Fatal(format string, args ...any) *Classified {
	return &Classified{Tier: TierFatal, Err: fmt.Errorf(format, args...)}
}

// Warning wraps err as a condition that is logged but does not stop
// the loop.
func Warning(format string, args ...any) *Classified {
	return &Classified{Tier: TierWarning, Err: fmt.Errorf(format, args...)}
}

// Recoverable wraps err as a condition that is silently discarded;
// kept as a constructor (rather than simply dropping the error) so
// call sites document the decision instead of swallowing errors
// invisibly.
func Recoverable(format string, args ...any) *Classified {
	return &Classified{Tier: TierRecoverable, Err: fmt.Errorf(format, args...)}
}
