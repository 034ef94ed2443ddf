package main

import "github.com/Jeomhps/coffee-api/cmd"

func main() {
	cmd.Execute()
}
