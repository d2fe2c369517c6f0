package main

import "rpmsynth/cmd"

func main() {
	cmd.Execute()
}
