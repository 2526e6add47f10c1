package main

import "github.com/tgberrios/datasync/cmd"

func main() {
	cmd.Execute()
}
