// Package async runs small units of work concurrently and collects their results.
//
// Async starts a task and returns a Future. Await waits for it; Settle waits
// for a group.
// Panics inside a task are recovered and surface as ErrPanic on that task's
// Future only.
//
//	client := async.Async(ctx, clientEnv, send)
//	admin := async.Async(ctx, adminEnv, send)
//	outcomes := async.Settle(client, admin) // both finish, whatever happens to the other
package async
