// Package logging wires log/slog for the pipeline: a console handler that
// prints compact key=value lines, a JSON handler for machine consumption, and
// small attribute helpers so call sites stay terse. Component loggers carry a
// "component" attribute that the console handler promotes into the message
// prefix.
package logging
