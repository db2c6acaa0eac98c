// Package fs abstracts the local filesystem used for segment spill so tests
// can inject I/O failures.
//
// Production code uses [Default]. Tests wrap it in a [FaultyFS] with rules
// keyed by a file name fragment:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".seg", fs.Fault{FailAfterBytes: 128})
package fs
