// Package error provides the structured error type used across zuse.
//
// Package: error
// Title: zuse Error Handling
// Description: Implements a structured error with codes, severity levels, details
//              and a cause chain. Interpreter faults such as unknown commands,
//              unbalanced parameter stacks or unreachable pipes are reported with
//              dedicated codes so callers can branch on them with HasCode.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-12
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with contextual errors and codes
// - 2026-10-12 v0.2.0: Interpreter codes, chain-aware HasCode, dropped i18n keys
//
// Usage:
//   import zerror "github.com/msto63/zuse/foundation/core/error"
//
//   err := zerror.New("command not found").
//     WithCode(zerror.CodeCommandNotFound).
//     WithDetail("command", name)
//
//   if zerror.HasCode(err, zerror.CodeCommandNotFound) {
//     // ...
//   }
//
//   if zerror.IsCritical(err) {
//     // abort the current script
//   }
package error
