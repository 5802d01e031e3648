package main

import "github.com/MeKo-Tech/imgmerge/cmd/imgmerge/cmd"

func main() {
	cmd.Execute()
}
