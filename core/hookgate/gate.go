// Package hookgate decides whether a first-boot hook runs or is skipped,
// and records the applied fingerprint only after the hook body succeeds.
// A hook that crashes or fails simply reruns in full at the next login;
// nothing is ever partially marked done.
package hookgate

import (
	"fmt"
	"regexp"

	coreerrors "github.com/joshyorko/dudley-build/core/errors"
	"github.com/joshyorko/dudley-build/core/fingerprint"
	"github.com/joshyorko/dudley-build/core/status"
)

// Store is the runtime version-tracking store owned by the host's
// first-boot orchestration layer. Implementations report the last
// fingerprint successfully applied for a hook and persist a new one.
type Store interface {
	LastKnown(hookName string) (string, bool, error)
	Record(hookName, fingerprint string) error
}

type Decision int

const (
	Run Decision = iota
	Skip
)

func (d Decision) String() string {
	if d == Skip {
		return "skip"
	}
	return "run"
}

var hookNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Evaluate returns Skip when the store already holds the baked-in
// fingerprint for the hook, Run otherwise. A store read failure also
// yields Run (with the error): hooks are idempotent by contract, so
// rerunning is safe while blocking login is not.
func Evaluate(store Store, hookName, bakedFingerprint string) (Decision, error) {
	if !hookNamePattern.MatchString(hookName) {
		return Run, coreerrors.Wrap(
			fmt.Errorf("hook name %q must match ^[a-zA-Z0-9_-]+$", hookName),
			coreerrors.CategoryInvalidInput, "invalid_hook_name", "", false,
		)
	}
	if !fingerprint.Valid(bakedFingerprint) {
		return Run, coreerrors.Wrap(
			fmt.Errorf("hook %s: baked-in fingerprint %q must match ^[a-f0-9]{8}$", hookName, bakedFingerprint),
			coreerrors.CategoryInvalidInput, "invalid_fingerprint",
			"the build's placeholder substitution did not run", false,
		)
	}

	stored, found, err := store.LastKnown(hookName)
	if err != nil {
		return Run, coreerrors.Wrap(
			fmt.Errorf("read version store for hook %s: %w", hookName, err),
			coreerrors.CategoryIOFailure, "store_read_failed", "", true,
		)
	}
	if found && stored == bakedFingerprint {
		return Skip, nil
	}
	return Run, nil
}

// ApplyOptions tunes Apply; TrailPath, when set, receives one JSONL
// diagnostic record per invocation so failures are visible on inspection
// without disturbing the login session.
type ApplyOptions struct {
	TrailPath string
}

// Apply is the full gate cycle for Go-implemented hooks and tests: skip
// if already applied, otherwise run body and record the fingerprint only
// on success. The returned Status maps onto the 0/2/1 exit convention.
func Apply(store Store, hookName, bakedFingerprint string, body func() error, options ApplyOptions) status.Status {
	decision, err := Evaluate(store, hookName, bakedFingerprint)
	if err != nil && coreerrors.CategoryOf(err) == coreerrors.CategoryInvalidInput {
		appendTrail(options.TrailPath, hookName, bakedFingerprint, "hook.invalid", err.Error())
		return status.Failed(err.Error())
	}
	if err != nil {
		// Store read failed; fall through and run the idempotent body.
		appendTrail(options.TrailPath, hookName, bakedFingerprint, "hook.store-unreadable", err.Error())
	}
	if decision == Skip {
		appendTrail(options.TrailPath, hookName, bakedFingerprint, "hook.skip", "")
		return status.Skipped("fingerprint already applied")
	}

	if err := body(); err != nil {
		appendTrail(options.TrailPath, hookName, bakedFingerprint, "hook.failed", err.Error())
		return status.Failed(err.Error())
	}

	if err := store.Record(hookName, bakedFingerprint); err != nil {
		appendTrail(options.TrailPath, hookName, bakedFingerprint, "hook.record-failed", err.Error())
		return status.Failed(fmt.Sprintf("record fingerprint: %v", err))
	}
	appendTrail(options.TrailPath, hookName, bakedFingerprint, "hook.run", "")
	return status.Succeeded()
}
