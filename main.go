package main

import "github.com/swabox/swabox/cmd"

func main() {
	cmd.Execute()
}
