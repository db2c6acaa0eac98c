// Command songsim builds and queries music-similarity indexes.
package main

func main() {
	Execute()
}
