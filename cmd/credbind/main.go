// Package main provides the credbind CLI, which runs a command with
// credentials bound into its environment and masked out of its output.
package main

func main() {
	Execute()
}
