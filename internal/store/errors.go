package store

import "github.com/corvusdb/corvus/internal/corverr"

func documentNotFound(id string) error {
	return corverr.NotFoundf("document %q not found", id)
}

func chunkNotFound(id string) error {
	return corverr.NotFoundf("chunk %q not found", id)
}
