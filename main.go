package main

import "github.com/tanq16/obito/cmd"

func main() {
	cmd.Execute()
}
