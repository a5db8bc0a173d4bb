//go:build !unix

package main

func machine() string { return "" }
