// Package ir provides the scalar value model shared by every catsite package.
//
// This package contains type definitions and loose-typing helpers only. All
// other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Values are a closed set: Null, String, Int. Database cells arrive as
//     String or Null; namespace variables may also hold Int.
//   - Emptiness, presence and integer parsing follow the loose rules content
//     authors expect ("" and "0" are empty, "12abc" reads as 12).
//   - Snapshots (MarshalCanonical) are deterministic: sorted keys, NFC text.
package ir
