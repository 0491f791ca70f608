package wizard

import "fmt"

// InputError rejects an answer. The step is asked again and nothing changes.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return e.Reason }

func invalid(format string, args ...any) error {
	return &InputError{Reason: fmt.Sprintf(format, args...)}
}

// PreconditionError ends a run because reference data it needs is missing.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string { return e.Reason }

func missing(format string, args ...any) error {
	return &PreconditionError{Reason: fmt.Sprintf(format, args...)}
}

// draftMismatchError is a programming error: a step received a draft of another track.
type draftMismatchError struct {
	step Step
	got  Draft
}

func (e *draftMismatchError) Error() string {
	return fmt.Sprintf("wizard: step %s cannot handle %T draft", e.step, e.got)
}

func draftAs[D Draft](c *Conversation) (D, error) {
	d, ok := c.Draft.(D)
	if !ok {
		return d, &draftMismatchError{step: c.Step, got: c.Draft}
	}
	return d, nil
}
