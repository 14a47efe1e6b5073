/*
Package resp builds and writes HTTP responses.

An Envelope is an immutable status code, header set and body.
Constructors validate what they are given:

	e, err := resp.JSON(http.StatusOK, payload)      // ErrEncodingFailure
	e, err := resp.Redirect("/login", http.StatusFound) // ErrInvalidArgument
	e, err := resp.New(999)                          // ErrInvalidStatusCode

A Responder emits Envelopes to an http.ResponseWriter
and converts errors that escaped a handler into JSON error Envelopes.
*/
package resp
