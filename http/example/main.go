/*
Package main provides a toy example use of trailhead's http stack.

Run it and try:

	curl 'localhost:3000/?route=/'
	curl 'localhost:3000/?route=/users/1'
	curl -X POST -H 'Content-Type: application/json' -d '{"name":"Grace","email":"grace@example.com"}' 'localhost:3000/?route=/users'
	curl -F 'doc=@README.md' 'localhost:3000/?route=/uploads'
	curl -i 'localhost:3000/?route=/old'
*/
package main

import (
	"log"
	"net/http"

	"github.com/xy-planning-network/trailhead/http/req"
	"github.com/xy-planning-network/trailhead/http/router"
	"github.com/xy-planning-network/trailhead/ranger"
)

func main() {
	table, err := newTable(newHandler())
	if err != nil {
		log.Fatal(err)
	}

	rng, err := ranger.New(table)
	if err != nil {
		log.Fatal(err)
	}

	if err := rng.Guide(); err != nil {
		log.Fatal(err)
	}
}

// newTable registers every example route on a fresh Table.
func newTable(h *handler) (*router.Table, error) {
	table := router.NewTable()
	err := table.RegisterAll(
		router.Route{Method: http.MethodGet, Path: "/", Handler: router.HandlerFunc(h.root)},
		router.Route{Method: http.MethodGet, Path: "/users/{id}", Handler: router.HandlerFunc(h.getUser)},
		router.Route{Method: http.MethodPost, Path: "/users", Handler: router.HandlerFunc(h.createUser)},
		router.Route{Method: http.MethodPost, Path: "/uploads", Handler: router.HandlerFunc(h.upload)},
		router.Route{Method: http.MethodGet, Path: "/files/{name}.{ext}", Handler: router.HandlerFunc(h.file)},
		router.Route{Method: http.MethodGet, Path: "/old", Handler: router.HandlerFunc(h.old)},
	)
	if err != nil {
		return nil, err
	}

	return table, nil
}

func newHandler() *handler {
	return &handler{
		parser: req.NewParser(),
		users:  newUserStore(user{ID: 1, Name: "Ada", Email: "ada@example.com"}),
	}
}
