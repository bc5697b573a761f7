package web

import "embed"

// StaticFS holds the embedded client-area stylesheet.
//
//go:embed static/*
var StaticFS embed.FS
