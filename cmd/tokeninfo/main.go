package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sigmatax/console/internal/access"
	"github.com/sigmatax/console/internal/auth"
)

// tokeninfo prints what the console reads from an API token and where the
// role would land after login.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: tokeninfo <token>")
		os.Exit(1)
	}

	claims, err := auth.DecodeToken(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode error: %v\n", err)
		os.Exit(1)
	}

	guard, err := access.NewGuard()
	if err != nil {
		fmt.Fprintf(os.Stderr, "access error: %v\n", err)
		os.Exit(1)
	}
	perms := guard.Resolve(claims.Role)

	fmt.Printf("staff_id: %s\n", claims.StaffID)
	fmt.Printf("role:     %s\n", claims.Role)
	fmt.Printf("is_admin: %t\n", claims.IsAdmin)
	fmt.Printf("expires:  %s (expired: %t)\n", claims.ExpiresAtTime().Format(time.RFC3339), claims.Expired(time.Now()))
	fmt.Printf("landing:  %s\n", perms.LandingPath())
	for _, c := range access.Capabilities {
		fmt.Printf("  %-16s %t\n", c, perms.Can(c))
	}
}
