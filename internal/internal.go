// Package internal has shared helpers for the actionstat CLI.
package internal
