package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"zweigbib/internal/bibliography"
)

func main() {
	// serves the dataset file at GET /dataset.csv for http sources
	dataPath := flag.String("data", "data/zweig_bibliography_enhanced.csv", "dataset file to serve")
	addr := flag.String("addr", ":8090", "listen address")
	flag.Parse()

	http.HandleFunc("/dataset.csv", func(w http.ResponseWriter, r *http.Request) {
		b, err := os.ReadFile(*dataPath)
		if err != nil {
			http.Error(w, "cannot read dataset: "+err.Error(), http.StatusInternalServerError)
			return
		}
		// validate the header so a broken file fails here, not in every client
		if _, err := bibliography.Parse(string(b)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(b)
	})

	log.Printf("dataset mirror listening on %s (GET /dataset.csv)", *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}
