package main

// _version is overwritten at release time with -ldflags.
var _version = "dev"
