package model

// InvariantError reports a broken data-model invariant. It is used as
// a panic value. A BlocksJob running several workers reports any panic
// of a worker, this one included, as a WorkerError; everywhere else the
// panic is not recovered and propagates to the caller.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return "invariant violated: " + e.Msg
}

func invariant(msg string) *InvariantError {
	return &InvariantError{Msg: msg}
}

// Assert panics with an InvariantError when cond is false
func Assert(cond bool, msg string) {
	if !cond {
		panic(invariant(msg))
	}
}
