// Package domain defines the core business entities for Notemill.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies beyond identifier validation and defines
// the fundamental types:
//
//   - Post: A published document queried from the remote source
//   - Block: A node in a post's retrieved content tree
//   - MediaKind: The category of an embedded media reference
//   - MediaResult: The (possibly degraded) outcome of acquiring media
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. All other packages depend on
// domain, never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library, github.com/google/uuid
//   - Cannot Import: Any internal/ package
package domain
