// The replay command runs an address trace through a replacement policy
// engine and reports hit and eviction statistics.
package main

func main() {
	Execute()
}
