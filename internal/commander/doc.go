// Package commander drives ordered, multi-phase application start and stop
// plans. Starter and Stopper never block waiting for a process to reach a
// terminal state: they enqueue an RPC and resume later from OnEvent, keeping
// in-flight requests in current_jobs bookkeeping subject to the 5s
// bounded-time check.
package commander
