// Package directory implements the client-side session, authorization, and
// reconciliation core of the MedManager administrative directory.
//
// Session lifecycle:
//   - Sessions pair a bearer token with the authenticated Principal and are
//     persisted as an atomic unit through a SessionStore. A locally restored
//     session is only "claimed": the Guard's first authenticated listing call
//     acts as the liveness probe, and any Unauthorized outcome tears the
//     session down in one step.
//
// Authorization:
//   - CapabilitiesOf is the single source of truth for what a Role may do.
//     Rendering decisions consume the capability set; the remote service
//     remains the real security boundary and the client never pre-checks
//     permissions before issuing a request.
//
// Reconciliation:
//   - The Roster holds a read-through cache of directory accounts. Every
//     mutation is followed by a wholesale refresh from the service; local
//     state is never spliced, so the rendered list always matches server
//     truth after each round trip.
//
// Forms:
//   - Form is a per-instance state machine driving field validation and a
//     single in-flight submission. Validation failures never reach the
//     network, and the password field is cleared on every terminal
//     transition.
package directory
