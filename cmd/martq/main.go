// Command martq runs filter queries against the marketplace database.
//
//	martq [--config file] find Listing --query '{"where":{"price":{"$gte":100}},"limit":5}'
//	martq create Favorite --data '{"userId":"u1","listingId":"l1"}'
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
