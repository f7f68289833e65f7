// Package models defines the records Splity persists for a settlement group.
//
// # Models
//
//   - Group: a settlement group with a display currency and an invite code
//   - Participant: a member of one group, identified by ID
//   - Bill: money fronted by one participant on behalf of the group
//   - Share: the portion of a bill one participant owes
//
// Balances and transfers are not models. They are derived per request by
// the calculator package and never stored.
//
// # Design Principles
//
//  1. Relationships use ID strings, not pointers
//  2. Participants are keyed by ID; names are display-only and may repeat
//  3. Amounts are float64 in the group's currency, rounded to cents on write
package models
