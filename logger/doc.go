/*
Package logger provides logging functionality to a trailhead app by defining the required behavior in [Logger]
and providing an implementation of it with [TrailheadLogger].

# TrailheadLogger

[TrailheadLogger] writes [log/slog] records through any [log/slog.Handler].
Records carry the file and line of the code calling the [Logger] method,
not of the logger itself.
A [*LogContext] passed alongside a message is attached under the "log_context" key
and renders only the fields that are set:

	time=2024-04-28T15:55:21.000Z level=ERROR source=router/dispatch.go:61 msg="handler failed" log_context.error="boom" log_context.route=/user/{id}

[ColorizeLevel] and [TruncSourceAttr] are ReplaceAttr functions for text output in development.

# SkipLogger

Sometimes, especially with internal packages, the file and line number in a log needs to be configurable.
[SkipLogger] provides additional configuration functionality by setting the number of frames to skip
back in order to reach the desired caller.

# SentryLogger

[SentryLogger] wraps another [Logger] and reports warnings and errors to Sentry
whenever the [*LogContext] carries an error.
*/
package logger
