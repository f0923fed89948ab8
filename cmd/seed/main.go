package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/perpusgo/lending-api/config"
	"github.com/perpusgo/lending-api/pkg/helpers"
)

// Seeds a librarian, a member and a couple of catalog entries, then prints a
// staff bearer token for the librarian so the admin routes are usable right
// away.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	var librarianID int64
	err = db.QueryRow(`
		INSERT INTO users (username, email, full_name, role, status)
		VALUES ('librarian', 'librarian@perpusgo.id', 'Demo Librarian', 'librarian', 'active')
		ON CONFLICT (username) DO UPDATE SET full_name = EXCLUDED.full_name
		RETURNING user_id
	`).Scan(&librarianID)
	if err != nil {
		log.Fatalf("failed to seed librarian: %v", err)
	}

	var memberID int64
	err = db.QueryRow(`
		INSERT INTO users (username, email, full_name, role, status)
		VALUES ('member', 'member@perpusgo.id', 'Demo Member', 'member', 'active')
		ON CONFLICT (username) DO UPDATE SET full_name = EXCLUDED.full_name
		RETURNING user_id
	`).Scan(&memberID)
	if err != nil {
		log.Fatalf("failed to seed member: %v", err)
	}

	books := []struct {
		isbn   string
		title  string
		year   int
		copies int
		price  int64
	}{
		{"9780134190440", "The Go Programming Language", 2015, 3, 450000},
		{"9780201616224", "The Pragmatic Programmer", 1999, 2, 385000},
	}
	for _, b := range books {
		var bookID int64
		err = db.QueryRow(`
			INSERT INTO books (isbn, title, publication_year, total_copies, available_copies, price, status)
			VALUES ($1, $2, $3, $4, $4, $5, 'available')
			ON CONFLICT (isbn) DO UPDATE SET title = EXCLUDED.title
			RETURNING book_id
		`, b.isbn, b.title, b.year, b.copies, b.price).Scan(&bookID)
		if err != nil {
			log.Fatalf("failed to seed book %s: %v", b.isbn, err)
		}
		fmt.Printf("seeded book: id=%d isbn=%s title=%q\n", bookID, b.isbn, b.title)
	}

	fmt.Printf("seeded users: librarian id=%d, member id=%d\n", librarianID, memberID)

	jwtManager := helpers.NewJWTManager(cfg.JWTStaffSecret, cfg.StaffTokenTTL)
	token, exp, err := jwtManager.GenerateStaffToken(librarianID, "librarian")
	if err != nil {
		log.Fatalf("failed to generate staff token: %v", err)
	}
	fmt.Printf("staff token (expires %s):\n%s\n", exp.Format("2006-01-02 15:04:05"), token)
}
