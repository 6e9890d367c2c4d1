// Command betactl talks to the landing API the way the landing page does.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// BETA_API_URL may come from a local .env.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
