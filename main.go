package main

import "face-attendance/cmd"

func main() {
	cmd.Execute()
}
