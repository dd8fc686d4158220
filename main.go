package main

import "github.com/polyforecast/polyforecast/cmd"

func main() {
	cmd.Execute()
}
