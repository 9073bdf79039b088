package main

import "github.com/sturgeonlabs/caviarwatch/cmd"

func main() {
	cmd.Execute()
}
