// Package main is the entry point for IdeaGate.
package main

func main() {
	Execute()
}
