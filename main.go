package main

import "github.com/KaramelBytes/tipdensity/cmd"

func main() {
	cmd.Execute()
}
