// The main package for the lecture-indexer executable.
package main

import "github.com/JakeFAU/lecture-indexer/cmd"

func main() {
	cmd.Execute()
}
