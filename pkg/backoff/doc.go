// Package backoff provides the reconnect pacing policy used by the worker.
//
// Delays grow exponentially from InitialDelay up to MaxDelay, with uniform
// random jitter of up to 10% added on top so that a fleet of workers does not
// reconnect in lockstep. The attempt counter is the only state; Reset is
// called after each successful handshake so a healthy reconnect starts back
// at the initial delay.
package backoff
