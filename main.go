package main

import "github.com/pixelhoard/gallery/cmd"

func main() {
	cmd.Execute()
}
