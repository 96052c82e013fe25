package main

import "github.com/Alturino/wintercollection/cmd"

func main() {
	cmd.Start()
}
