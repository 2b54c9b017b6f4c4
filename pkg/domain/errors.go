package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrStaleSession is returned when a result is committed on top of a newer session generation.
var ErrStaleSession = errors.New("stale session generation")

// ErrNotEditable is returned when an edit targets a message that is not a user message.
var ErrNotEditable = errors.New("message is not editable")

// ErrEmptyInput is returned when a submission carries no text.
var ErrEmptyInput = errors.New("empty input")
