package schedule

// Confirmer approves a destructive bulk change before it is written.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function, such as a terminal y/N prompt, to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Confirmed answers every prompt with ok. HTTP callers use it with the
// request's explicit "confirm" flag.
func Confirmed(ok bool) Confirmer {
	return ConfirmFunc(func(string) bool { return ok })
}
