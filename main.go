package main

import "github.com/frahmantamala/smartwork/cmd"

func main() {
	cmd.Execute()
}
