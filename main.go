package main

import "github.com/keegan31/GitScan/cmd"

func main() {
	cmd.Execute()
}
