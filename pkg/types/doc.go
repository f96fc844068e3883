// Package types defines the record model, cursors, the store and timeline
// source interfaces, and the standard errors shared by every tweetsync
// package.
package types
