// Package admin implements the administrator command line: bulk export of
// submitted applications, setting a review status and resetting a user's
// password from the terminal.
package admin
