// Package stringx provides small string helpers shared by the zuse packages.
//
// Package: stringx
// Title: String Utilities
// Description: Unicode-aware helpers for blank checks, truncation, padding
//              and line splitting used by the script runner, the console and
//              log output.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-12
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with core utilities
// - 2026-10-12 v0.2.0: Reduced to the helpers zuse uses
package stringx
