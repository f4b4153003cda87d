// Package logging configures slog for the wikimg CLI.
//
// Without --debug, warnings and errors go to stderr as text. With --debug, JSON logs at
// debug level are written to ~/.wikimg/logs/wikimg.log (size-rotated) and mirrored to stderr.
package logging
