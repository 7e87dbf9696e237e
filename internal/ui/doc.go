// Package ui provides terminal UI components for the sodatap-ctl CLI.
//
// This package uses Lipgloss to render styled terminal output. All
// components follow a "run once and exit" pattern - they render output
// compellingly but don't require user interaction.
//
// The package provides three main component types:
//
//   - Header: Command banner showing operation name and parameters
//   - Result: Success/failure/warning boxes with styled information
//   - Table: Aligned key-value listings for device state dumps
//
// Components degrade gracefully on narrow terminals and cap their width
// on very wide ones.
package ui
