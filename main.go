package main

import "github.com/ValentinKolb/objlock/cmd"

func main() {
	cmd.Execute()
}
