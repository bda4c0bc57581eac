// Command healthcheck is a standalone ops tool for verifying database
// connectivity from outside the running server process, e.g. from a
// deploy pipeline step or a container readiness probe that shouldn't
// depend on the server's own pgx pool being up.
package main

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fmt.Println("DATABASE_URL not set")
		os.Exit(1)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		fmt.Println("error opening connection:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		fmt.Println("ping error:", err)
		os.Exit(1)
	}

	fmt.Println("database reachable")
}
