// Package lifecycle holds the side-effect-free rules of the service: the
// event publication state machine, the participation request state machine
// and the capacity-constrained allocation of pending requests.  Every
// function takes the current value plus a clock reading and returns a new
// value or a typed *Error; persistence happens elsewhere.
package lifecycle
