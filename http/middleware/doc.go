/*
The middleware package defines what a middleware is in trailhead and a set of basic middlewares.

The available middlewares are:
- CORS
- InjectIPAddress
- LogRequest
- RateLimit
- ReportPanic
- RequestID

Middlewares wrap the front controller serving the dispatcher,
so they see every request before it becomes a req.Request.
A ranger.Ranger assembles its own chain from configuration;
when serving a dispatcher some other way, the following can be copy-pasted:

	vs := middleware.NewVisitors()
	adpts := []middleware.Adapter{
		middleware.ReportPanic(env),
		middleware.RateLimit(vs),
		middleware.RequestID(),
		middleware.InjectIPAddress(),
		middleware.LogRequest(log),
		middleware.CORS(origin),
	}

	http.ListenAndServe(":8080", middleware.Chain(frontController, adpts...))
*/
package middleware
