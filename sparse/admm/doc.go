// Package admm implements a generic ADMM (Alternating Direction Method of
// Multipliers) iteration engine for problems of the form
//
//	minimize f(x) + g(y)  subject to  x − y = 0
//
// with scaled dual variable u. The engine owns the penalty parameter ρ, the
// iteration counter, residual based stopping, adaptive ρ and the state
// machine. The problem specific updates are supplied through [Problem].
//
// # Iteration
//
// One call of [Engine.Step] performs, in this fixed order:
//
//  1. x-update via [Problem.UpdateX]
//  2. over-relaxation and y-update via [Problem.UpdateY]
//  3. dual update u ← u + x̃ − y via [Problem.UpdateU]
//  4. primal residual ‖x − y‖ and dual residual ρ‖y − y_prev‖
//  5. statistics record and observer notification
//  6. ρ adaptation
//  7. termination check
//
// # States
//
// An engine starts in [StateInitialized], moves to [StateIterating] on the
// first step and ends in one of the terminal states [StateConverged],
// [StateMaxIterReached], [StateTimeLimit] or [StateFailed]. Terminal states
// are sticky. Cancelling the context passed to [Engine.Run] stops between
// iterations without changing the state, so a later Run resumes.
//
// # Adaptive penalty
//
// When [AutoRhoOptions.Enabled] is set, ρ is multiplied or divided by a
// factor whenever one residual exceeds the other by more than RsdlRatio.
// Every change of ρ increments a generation counter handed to
// [Problem.UpdateX]; problems cache ρ dependent factorizations keyed by this
// counter. The scaled dual variable is rescaled by ρ_old/ρ_new on change.
//
// # Diagnostics
//
// Each completed iteration produces an [IterationStats] record that is
// appended to a [Tracker] (unless verbosity is [VerbosityQuiet]), passed to
// an optional [Observer] and, at [VerbosityTrace], logged with log/slog.
package admm
