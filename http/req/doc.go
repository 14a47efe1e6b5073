/*
Package req turns untrusted HTTP input into read-only, typed values.

FromHTTP reads an *http.Request exactly once.
The query string, body, cookies and CGI-style server metadata each become Values,
and uploaded files are spooled to disk and described by an Upload.
Application code reads every piece of input through the typed getters on Values:

	id, err := r.Query().Int("id", 0)
	if errors.Is(err, trailhead.ErrTypeMismatch) {
		// "id" was present but not an integer
	}

An absent key yields the default; a present value of the wrong shape
yields a *TypeMismatchError; nothing is silently coerced beyond the
documented string conversions.

Parser decodes a JSON body or Values into an application struct
and validates it with "validate" struct tags,
translating failures to ValidationErrors that wrap trailhead.ErrNotValid.
*/
package req
