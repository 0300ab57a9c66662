package main

import "github.com/nshamaev/instakiller/cmd"

func main() {
	cmd.Run()
}
