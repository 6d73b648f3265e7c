package main

import "docq/cmd"

func main() {
	cmd.Run()
}
