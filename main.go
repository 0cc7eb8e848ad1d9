package main

import "github.com/mj1618/desktop-replay/cmd"

func main() {
	cmd.Execute()
}
