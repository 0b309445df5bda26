// Package integration verifies the interplay of the foundation packages.
//
// Package: integration
// Title: Foundation Integration Tests
// Description: Checks that errors raised by the utility packages keep their
//              codes through wrapping and that the logger renders them with
//              code and severity fields.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-18
//
// Change History:
// - 2025-01-25 v0.1.0: Initial implementation of integration test suite
// - 2026-10-18 v0.2.0: Reduced to error, log, filex and stringx
package integration
