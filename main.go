package main

import "github.com/inkpress/vellum/cmd"

func main() {
	cmd.Execute()
}
