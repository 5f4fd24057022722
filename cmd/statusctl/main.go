// Command statusctl mutates a shared status document in a remote
// repository, with optional mirroring to a Notion database.
package main

func main() {
	Execute()
}
