// cmd/alexa-smapi/main.go
package main

import "alexa-smapi-connector/internal/cli"

func main() {
	cli.Execute()
}
