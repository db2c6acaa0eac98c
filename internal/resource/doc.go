// Package resource bounds the memory and disk bandwidth used by index
// builds.
//
// A Controller tracks bytes reserved by in-memory buffers against a hard
// limit and throttles segment spill writes to a configured rate. A nil
// *Controller is valid and imposes no limits.
package resource
