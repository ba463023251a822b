package bootstrap

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// PrintUsersResult writes the bootstrap results in a readable table.
// Nothing is written when no user was created.
func PrintUsersResult(w io.Writer, result *UsersResult) {
	if result == nil || result.CreatedCount() == 0 {
		return
	}

	border := strings.Repeat("=", 80)
	fmt.Fprintf(w, "\n%s\n", border)
	fmt.Fprintln(w, "USER BOOTSTRAP COMPLETED")
	fmt.Fprintf(w, "%s\n", border)

	for i, u := range result.Users {
		status := "Already existed"
		if u.Created {
			status = "Created"
		}
		fmt.Fprintf(w, "  %d. %s\n", i+1, u.Username)
		fmt.Fprintf(w, "     ID: %s\n", u.ID)
		fmt.Fprintf(w, "     Status: %s\n", status)
	}

	fmt.Fprintf(w, "%s\n\n", border)
}

// LogUsersSummary logs a concise summary using slog
func LogUsersSummary(result *UsersResult) {
	if result == nil {
		return
	}
	slog.Info("User bootstrap summary",
		"users_total", len(result.Users),
		"users_created", result.CreatedCount(),
	)
}
