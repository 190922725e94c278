// main is required to link package main; it is unused in the c-shared
// build and lives outside bridge.go so the package still compiles when
// cgo is disabled.
package main

func main() {}
