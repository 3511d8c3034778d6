// Package async runs HTTP requests on worker goroutines.
//
// [Start] hands a parsed [config.Options] to a new worker and returns a
// [Request] immediately. The caller may poll it ([Request.IsDone],
// [Request.Progress], [Request.Data]), stop it ([Request.Cancel]) or wait
// for it ([Request.Response]). Every Request must be released with
// [Request.Dispose], which joins the worker before freeing anything it
// might still touch.
//
// All mutable state of a Request is guarded by a single mutex shared by
// the caller and the worker. Cancellation is cooperative: Cancel raises a
// flag that the worker checks each time the transport hands it data, and
// also cancels the worker's context so a peer that never sends anything
// still unblocks the transfer.
//
// A [Group] tracks the workers of one client so they can be cancelled and
// joined together.
package async
