// Package main is the entry point for the beatline API server. Song files
// named on the command line are loaded into the store before it listens.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/james-see/beatline/pkg/api"
	"github.com/james-see/beatline/pkg/songfile"
)

func main() {
	port := flag.Int("port", 8080, "Server port")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-port n] [song files...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	store := api.NewStore()
	if err := preload(store, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("beatline API listening on :%d with %d compositions\n", *port, len(store.IDs()))
	fmt.Printf("Swagger UI at http://localhost:%d/swagger/index.html\n", *port)
	if err := api.Serve(*port, store); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

// preload adds every song in paths to store, stopping at the first that
// fails to load
func preload(store *api.Store, paths []string) error {
	for _, path := range paths {
		c, err := songfile.Load(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		id := store.Add(c)
		fmt.Printf("Loaded %s as %s\n", path, id)
	}
	return nil
}
