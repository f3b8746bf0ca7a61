// Package grant implements datagate's scoped access grants.
//
// A grant is a time-boxed record authorizing a contributor to reach the
// downstream data store directly. The Service owns every user-facing
// mutation: creation under a per-contributor concurrency cap, listing,
// deactivation, and bounded extension. The Reaper deactivates expired
// grants on a schedule, independent of request traffic.
//
// Grants are never physically deleted in normal operation; deactivation is
// a soft state kept for audit. Endpoint passwords are generated on create
// and on every extension, handed to the caller once, and only their
// Argon2id hashes leave the process (via the downstream credential mirror).
package grant
