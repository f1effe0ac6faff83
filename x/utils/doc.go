// Package utils contains decorators shared by every application: panic
// recovery, logging, savepoints, action tags and transaction metrics.
package utils
