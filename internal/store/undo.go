package store

// undoStack collects compensating actions during a multi-step
// mutation. If a later step fails, unwind rolls the earlier steps
// back in reverse order and the store is left as it was.
type undoStack struct {
	actions []func()
}

func (u *undoStack) push(fn func()) {
	u.actions = append(u.actions, fn)
}

func (u *undoStack) unwind() {
	for i := len(u.actions) - 1; i >= 0; i-- {
		u.actions[i]()
	}
	u.actions = nil
}
