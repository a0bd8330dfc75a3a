package main

import "secconfdb/cmd"

func main() {
	cmd.Execute()
}
