package main

import "github.com/OpenTraceLab/OpenTraceMux/cmd/otmux/cmd"

func main() {
	cmd.Execute()
}
