// Package errors provides structured, coded errors for the reconciler.
//
// Every failure the reconciler surfaces to callers carries a stable code
// (e.g. "E003") that maps to:
//   - A short message describing the failure
//   - A longer explanation
//   - A documentation URL
//
// # Error Categories
//
//   - hooks: misuse of the component state engine (hook order, hooks outside render)
//   - render: failures raised while building a work-in-progress tree
//   - commit: failures raised while applying a finished tree to the render target
//   - scheduling: updates that cannot be scheduled
//   - config: configuration loading and validation
//
// # Usage
//
//	err := errors.New("E003").
//	    WithDetail("component Counter panicked: index out of range").
//	    Wrap(cause)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E003: Component panicked during render
//	//
//	//   component Counter panicked: index out of range
//	//
//	//   Learn more: https://vango.dev/docs/reconciler/errors/E003
package errors
