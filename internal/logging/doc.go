// Package logging builds the process logger: a zap core exposed as a
// logr.Logger, writing a human console stream to stderr and, optionally, a
// rotating JSON log file.
package logging
