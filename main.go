package main

import "minivm/cmd"

func main() {
	cmd.Execute()
}
