/*
Package ranger hosts a trailhead route table behind a web server with sane defaults.

# Ranger

The main entrypoint to package ranger is the [Ranger] type,
constructed with [New] from a populated [router.Table].

	table := router.NewTable()
	table.HandleFunc(http.MethodGet, "/hello", hello)

	rng, err := ranger.New(table)
	if err != nil {
		log.Fatal(err)
	}

	log.Fatal(rng.Guide())

A [Ranger] mounts three things on a gorilla/mux router:
  - a health check at HEALTH_PATH;
  - the prometheus registry at METRICS_PATH;
  - the front controller at MOUNT_PATH.

The front controller builds a [req.Request] once from each *http.Request,
dispatches it by the query parameter named by ROUTE_PARAM,
writes the resulting [resp.Envelope] and closes the request.
Errors propagated from handlers become JSON error bodies through [resp.Responder.Err].

[*Ranger.Guide] begins the web server.
By default, [*Ranger.Guide] listens on [DefaultPort] (:3000).
Stop that web server with [*Ranger.Shutdown],
cancel the context passed to [WithContext],
or send a signal [*Ranger.Guide] listens for.

# Configuration

A developer configures a trailhead app through a YAML file, environment variables, or [WithConfig].
[LoadConfig] layers [DefaultConfig], then the file named by CONFIG_FILE, then the variables below.

Environment variables ought to be set in a file called ".env"
found at the same directory the application is executed from.

Here are the available environment variables.
  - CONFIG_FILE: a YAML file whose keys match the yaml tags of [Config]
  - COOKIE_BLOCK_KEY: a hex-encoded key for decrypting cookies; requires COOKIE_HASH_KEY
  - COOKIE_HASH_KEY: a hex-encoded key for verifying signed cookies; cf. [encoding/hex]
  - CORS_ORIGIN: the origin cross-origin requests are allowed from; default: none
  - ENVIRONMENT: the environment the application is running in; cf. [trailhead.Environment]
  - ERROR_MESSAGE: the message 500 responses carry; default: Internal Server Error
  - HEALTH_PATH: default: /healthz
  - HOST: the host the application is running on; default: localhost
  - LOG_JSON: write JSON logs in development too; default: false
  - LOG_LEVEL: the level at which to begin logging; default: INFO
  - MAX_FILE_SIZE: the largest single upload in bytes; default: 8MiB
  - MAX_BODY_SIZE: the largest multipart body in bytes; default: 64MiB
  - MAX_MEMORY: the largest body held in memory in bytes; default: 32MiB
  - METRICS_PATH: default: /metrics; empty disables it
  - MOUNT_PATH: the path prefix the front controller serves; default: /
  - PORT: the port the application should listen on; default: :3000
  - RATE_BURST: requests a single IP address may burst to
  - RATE_LIMIT: sustained requests per second per IP address; default: 0, unlimited
  - ROUTE_PARAM: the query parameter carrying the route path; default: route
  - SENTRY_DSN: report errors and panics to Sentry
  - SERVER_IDLE_TIMEOUT: the timeout - as understood by [time.ParseDuration] - for idling between requests when using keep-alives; default: 120s
  - SERVER_READ_TIMEOUT: the timeout - as understood by [time.ParseDuration] - for reading HTTP requests; default: 5s
  - SERVER_WRITE_TIMEOUT: the timeout - as understood by [time.ParseDuration] - for writing HTTP responses; default: 5s
  - SHUTDOWN_TIMEOUT: how long Shutdown waits for in-flight requests; default: 5s
  - UPLOAD_DIR: the directory uploads are spooled into; default: the OS temp dir
*/
package ranger
