// Package ui contains the Bubble Tea program that browses a grid through its
// filter panes.
//
// Message flow:
//   - Model.Update forwards key presses to the global search form while it is
//     open. Otherwise messages are routed through a typed handler registry so
//     each tea.Msg is handled by a focused function.
//   - Navigation helpers (navigation.go) move focus between panes and the
//     cursor within one. Enter toggles the option under the cursor on the
//     pane itself; the engine reacts to the pane event and reconciles.
//   - Typing edits the focused pane's search box (input.go). The level's
//     search function hands the term to the pane and lists its options.
//
// State ownership:
//   - Each displayed pane has an internal/ui/state.Level tracking its listed
//     options, cursor, viewport and search text. Levels are re-listed after
//     every change that can move counts.
//   - Selections, counts and the ledger belong to the engine and its panes;
//     the model only reads them for rendering.
//
// Server-side grids:
//   - A backend.Fetcher runs queries off the update loop. waitForFetch turns
//     each result into a message; the grid accepts it (or drops it as stale)
//     and the engine applies the new counts before the levels are re-listed.
package ui
