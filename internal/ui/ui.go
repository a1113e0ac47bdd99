package ui

import (
	"embed"
	"io/fs"
	"net/http"
)

// content embeds the dashboard assets so the binary ships self-contained.
//
//go:embed static/*
var content embed.FS

// Handler serves the embedded dashboard under /.
func Handler() http.Handler {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		// Only possible if the embed directive and the tree disagree.
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
