package engine

// Unimplemented is called by instrumented code before calling a function
// that was not instrumented.
func (rt *Runtime) Unimplemented(fname string) {
	rt.unimplemented.Add(1)
	if rt.flags.WarnUnimplemented {
		rt.log.WithField("func", fname).Warn("call to uninstrumented function")
	}
}

// NonzeroLabel is called whenever instrumented code observes a nonzero
// label (debug builds only).
func (rt *Runtime) NonzeroLabel() {
	if rt.flags.WarnNonzeroLabels {
		rt.log.Warn("saw nonzero label")
	}
}

// VarargWrapper is called on an indirect call to an uninstrumented vararg
// function. Such calls cannot be followed; the result stays untainted.
func (rt *Runtime) VarargWrapper(fname string) {
	rt.log.WithField("func", fname).Warn("unsupported indirect call to vararg function")
}
