package main

var (
	version = "latest" // version is the application version shown by --version
)
