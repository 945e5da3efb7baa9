package main

import "uk-school-scraper/cmd"

func main() {
	cmd.Execute()
}
