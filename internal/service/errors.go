// Package service implements the resolver-layer operations: session
// checks happen in the graph layer, authorization and store/bus
// orchestration happen here.
package service

import "errors"

// Sentinel errors surfaced to the graph layer, which maps each to a
// stable user-facing message. Raw store errors never cross this
// boundary unwrapped into responses.
var (
	ErrNotAuthorized        = errors.New("caller is not authorized")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrParticipantNotFound  = errors.New("participant not found")
	ErrUsernameTaken        = errors.New("username already taken")
	ErrInvalidInput         = errors.New("invalid input")
)
