// Package accounts implements activation, credential recovery, and session
// issuance for an email-identified user directory.
//
// Activation:
//   - Accounts are created inactive with a 6-digit verification code. The
//     code has no server-side expiry; staleness is bounded by the 60s resend
//     cooldown shared between explicit resends and login attempts against
//     inactive accounts.
//
// Recovery:
//   - Password reset tokens are opaque, single-use values with a 1h window.
//     A new request always supersedes any outstanding token, and consumed
//     tokens are recorded permanently in a replay ledger. The ledger's
//     insert-if-absent is the sole arbiter of concurrent consumption.
//
// Sessions:
//   - Auther authenticates credentials, gates issuance on activation state,
//     and mints an access+refresh JWT pair via TokenService.
//
// Collaborators (persistence, email transport, HTTP routing) stay behind
// interfaces; Bun-backed repositories and a gomail SMTP gateway ship as the
// default implementations.
package accounts
