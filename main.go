package main

import "quizontal-backend/cmd"

func main() {
	cmd.Run()
}
