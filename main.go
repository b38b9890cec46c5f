package main

import (
	"github.com/joho/godotenv"

	"github.com/tiagovla/slowly-go/cmd"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Local .env files may carry SLOWLY_TOKEN; absence is fine.
	_ = godotenv.Load()

	cmd.SetVersion(version, buildTime)
	cmd.Execute()
}
