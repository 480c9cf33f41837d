// Package errors defines the typed errors exchanged between the collection
// services, the API client and the HTTP layer.
package errors

import (
	"errors"
	"fmt"
)

// AuthFailedError means the cluster rejected every authentication strategy.
// It always terminates the run; there is no silent continuation without
// credentials.
type AuthFailedError struct {
	Host string
}

func NewAuthFailedError(host string) *AuthFailedError {
	return &AuthFailedError{Host: host}
}

func (e *AuthFailedError) Error() string {
	return fmt.Sprintf("authentication against %s failed", e.Host)
}

func IsAuthFailedError(err error) bool {
	var e *AuthFailedError
	return errors.As(err, &e)
}

// UnreachableError means the cluster could not be reached at all after the
// retry policy was exhausted.
type UnreachableError struct {
	Host string
	Err  error
}

func NewUnreachableError(host string, err error) *UnreachableError {
	return &UnreachableError{Host: host, Err: err}
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("cluster %s unreachable: %v", e.Host, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

func IsUnreachableError(err error) bool {
	var e *UnreachableError
	return errors.As(err, &e)
}

// CollectionInProgressError is returned when a collection is requested while
// another one is still running. Only one collection runs at a time.
type CollectionInProgressError struct{}

func NewCollectionInProgressError() *CollectionInProgressError {
	return &CollectionInProgressError{}
}

func (e *CollectionInProgressError) Error() string {
	return "a collection is already in progress"
}

func IsCollectionInProgressError(err error) bool {
	var e *CollectionInProgressError
	return errors.As(err, &e)
}

// RunNotFoundError is returned by the history store when the requested run
// does not exist.
type RunNotFoundError struct {
	ID string
}

func NewRunNotFoundError(id string) *RunNotFoundError {
	return &RunNotFoundError{ID: id}
}

func (e *RunNotFoundError) Error() string {
	return fmt.Sprintf("run %s not found", e.ID)
}

func IsResourceNotFoundError(err error) bool {
	var e *RunNotFoundError
	return errors.As(err, &e)
}

// SSHUnavailableError means the representative compute node could not be
// reached over SSH. There is no fallback data source for the cluster-wide
// listings, so the topology correlation aborts with this error.
type SSHUnavailableError struct {
	Host string
	Err  error
}

func NewSSHUnavailableError(host string, err error) *SSHUnavailableError {
	return &SSHUnavailableError{Host: host, Err: err}
}

func (e *SSHUnavailableError) Error() string {
	return fmt.Sprintf("ssh to %s failed: %v", e.Host, e.Err)
}

func (e *SSHUnavailableError) Unwrap() error { return e.Err }

func IsSSHUnavailableError(err error) bool {
	var e *SSHUnavailableError
	return errors.As(err, &e)
}
