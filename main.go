package main

import "github.com/mxl/types-publisher/cmd"

func main() {
	cmd.Execute()
}
