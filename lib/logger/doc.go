// Package logger defines the logging interface used throughout dLock and
// provides two implementations: a standard logger writing formatted lines
// to an io.Writer and a no-op logger for tests and embedders that bring
// their own logging.
//
// Every component of dLock (lock manager, stores, rpc layer) takes an
// ILogger at construction time instead of logging through a package-level
// logger. This keeps log routing a caller decision and makes the library
// silent by default.
package logger
