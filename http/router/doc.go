/*
Package router resolves a method and path to exactly one Handler.

Routes are registered on a Table before serving:

	t := router.NewTable()
	err := t.HandleFunc(http.MethodGet, "/users/{id}", func(r *req.Request, p router.Params) (resp.Envelope, error) {
		id, err := p.Values().Int("id", 0)
		if err != nil {
			return resp.Envelope{}, err
		}

		return resp.JSON(http.StatusOK, map[string]int64{"id": id})
	})

A Dispatcher reads the path from the "route" query parameter and resolves it:
an exact match wins, then a 405 when the literal path is registered under other methods,
then the first placeholder Route registered for the method, then a 404.
There is no specificity scoring; registration order is precedence.
*/
package router
