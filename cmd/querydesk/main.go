// Command querydesk answers natural-language questions about the sales
// database over HTTP, on the command line and by scheduled email.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/querydesk/querydesk/internal/commands"
	"github.com/querydesk/querydesk/internal/config"
)

func main() {
	if err := commands.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
