// Package secret provides random credential material for datagate.
//
// It is the single source of truth for:
//   - client secrets: fixed-length alphanumeric strings (62-symbol alphabet),
//   - endpoint passwords: fixed-length strings over an extended alphabet,
//   - Argon2id hashing of endpoint passwords before they leave the process.
//
// All randomness comes from crypto/rand. Generation uses rejection sampling
// so every alphabet symbol is equally likely.
package secret
