//go:build physicsdebug

package physics

// Debug builds fail fast on out of range handles.
func assertHandle(err *HandleError) {
	panic(err)
}
