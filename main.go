package main

import "github.com/dbsDevelops/f1-24-setup-recommender/cmd"

func main() {
	cmd.Execute()
}
