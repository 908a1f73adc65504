package domain

import (
	"errors"
	"fmt"
)

// Error classes for sync operations. Source and target clients wrap causes
// with one of these so the orchestrator can decide between retrying,
// skipping the notebook and aborting the run.
var (
	// ErrAuth means credentials are missing or rejected. Fatal for the whole run.
	ErrAuth = errors.New("authentication failed")

	// ErrTransient marks failures worth retrying: rate limits, network hiccups,
	// server-side errors.
	ErrTransient = errors.New("transient failure")

	// ErrPermanent marks failures that will not succeed on retry, e.g. an
	// invalid repository name or a notebook deleted between listing and fetch.
	ErrPermanent = errors.New("permanent failure")

	// ErrNotFound marks a missing remote entity. A repository probe translates
	// it to exists=false; elsewhere it is a valid empty-result signal.
	ErrNotFound = errors.New("not found")
)

// Auth wraps err as an authentication failure
func Auth(err error) error { return classify(ErrAuth, err) }

// Transient wraps err as a retryable failure
func Transient(err error) error { return classify(ErrTransient, err) }

// Permanent wraps err as a non-retryable failure
func Permanent(err error) error { return classify(ErrPermanent, err) }

// NotFound wraps err as a missing-entity failure
func NotFound(err error) error { return classify(ErrNotFound, err) }

func classify(class, cause error) error {
	if cause == nil {
		return class
	}
	return fmt.Errorf("%w: %w", class, cause)
}

func IsAuth(err error) bool      { return errors.Is(err, ErrAuth) }
func IsTransient(err error) bool { return errors.Is(err, ErrTransient) }
func IsPermanent(err error) bool { return errors.Is(err, ErrPermanent) }
func IsNotFound(err error) bool  { return errors.Is(err, ErrNotFound) }
