package main

import "github.com/naka-gawa/github-star-growth/cmd"

func main() {
	cmd.Execute()
}
