// Package errors provides structured, actionable error messages for the
// statetree command line tools.
//
// Each error has a unique code (e.g., "E200") that maps to a short message,
// a detailed explanation and a category:
//   - config: statetree.json and --set overrides
//   - script: decoding and applying splice scripts
//   - replay: replay filters
//   - inspect: the inspector server
//   - cli: command line usage
//
// # Usage
//
//	err := errors.New("E201").
//	    WithLocation("todo.yaml", 4, 9).
//	    WithSuggestion(`did you mean "splice"?`)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E201: Unknown step operation
//	//
//	//   todo.yaml:4:9
//	//
//	//        2 │ steps:
//	//        3 │   - {op: splice, index: 0, add: [a]}
//	//   →    4 │   - {op: splcie, index: 0}
//	//          │         ^
//	//
//	//   Each step must have op set to splice or set.
//	//
//	//   Hint: did you mean "splice"?
//
// The core packages under pkg/ return plain sentinel and typed errors; this
// package only dresses them up at the command line boundary.
package errors
