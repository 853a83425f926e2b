// Package desktop provides the page-level and system operations: navigation,
// screenshots and the system clipboard.
package desktop
