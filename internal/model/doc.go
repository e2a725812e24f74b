// Package model defines the storefront state types shared by every other
// internal package.
//
// This package contains type definitions, snapshot copying and read-only
// selectors. All other internal packages import model; model imports nothing
// internal.
//
// Key design constraints:
//   - State is owned by the state.Store; everyone else sees Clone()d snapshots
//   - Cart holds at most one CartItem per product ID, each with Quantity >= 1
//   - JSON tags follow the storefront wire format (camelCase, as persisted)
package model
