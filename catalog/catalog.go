//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

// Package catalog is the store's SQL query service: read-only music catalog
// lookups plus identity-scoped account queries. Every identity-sensitive
// query takes the customer ID as an explicit parameter supplied from the
// security context, never from model output.
package catalog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrInvoiceNotFound is returned when an invoice does not exist or does not
// belong to the requesting customer. The two cases are deliberately
// indistinguishable to the caller.
var ErrInvoiceNotFound = errors.New("invoice not found")

// ErrCustomerNotFound is returned when a customer lookup finds no row.
var ErrCustomerNotFound = errors.New("customer not found")

// Migrate applies the embedded schema and demo seed data to db.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("apply catalog migrations: %w", err)
	}
	return nil
}

// Service answers catalog and account queries over a SQL database.
type Service struct {
	db *sql.DB
}

// NewService creates a catalog service over the given database.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Album is one album row with its artist.
type Album struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// Track is one track row with its artist.
type Track struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
}

// TrackMatch is a title-search hit with album and duration context.
type TrackMatch struct {
	Name            string `json:"name"`
	Album           string `json:"album"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// GenreArtist is an artist ranked by track count within a genre.
type GenreArtist struct {
	Name       string `json:"name"`
	TrackCount int64  `json:"track_count"`
}

// Customer is a customer profile row.
type Customer struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Country   string `json:"country"`
}

// Invoice is an invoice row.
type Invoice struct {
	ID             int64   `json:"id"`
	Date           string  `json:"date"`
	BillingCity    string  `json:"billing_city"`
	BillingCountry string  `json:"billing_country"`
	Total          float64 `json:"total"`
}

// AlbumsByArtist returns all albums whose artist name matches the given
// fragment.
func (s *Service) AlbumsByArtist(ctx context.Context, artist string) ([]Album, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT al.title, ar.name
		FROM albums al
		JOIN artists ar ON al.artist_id = ar.artist_id
		WHERE ar.name LIKE '%' || ? || '%'
		ORDER BY al.title`, artist)
	if err != nil {
		return nil, fmt.Errorf("albums by artist: %w", err)
	}
	defer rows.Close()

	var albums []Album
	for rows.Next() {
		var album Album
		if err := rows.Scan(&album.Title, &album.Artist); err != nil {
			return nil, fmt.Errorf("scan album: %w", err)
		}
		albums = append(albums, album)
	}
	return albums, rows.Err()
}

// TracksByArtist returns all tracks whose artist name matches the given
// fragment.
func (s *Service) TracksByArtist(ctx context.Context, artist string) ([]Track, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name, ar.name
		FROM tracks t
		JOIN albums al ON t.album_id = al.album_id
		JOIN artists ar ON al.artist_id = ar.artist_id
		WHERE ar.name LIKE '%' || ? || '%'
		ORDER BY t.name`, artist)
	if err != nil {
		return nil, fmt.Errorf("tracks by artist: %w", err)
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		var track Track
		if err := rows.Scan(&track.Name, &track.Artist); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

// SearchTracks returns up to 20 tracks whose title matches the fragment.
func (s *Service) SearchTracks(ctx context.Context, title string) ([]TrackMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name, al.title, t.milliseconds / 1000
		FROM tracks t
		JOIN albums al ON t.album_id = al.album_id
		WHERE t.name LIKE '%' || ? || '%'
		LIMIT 20`, title)
	if err != nil {
		return nil, fmt.Errorf("search tracks: %w", err)
	}
	defer rows.Close()

	var matches []TrackMatch
	for rows.Next() {
		var match TrackMatch
		if err := rows.Scan(&match.Name, &match.Album, &match.DurationSeconds); err != nil {
			return nil, fmt.Errorf("scan track match: %w", err)
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

// ArtistsByGenre returns the top artists in a genre ranked by track count.
func (s *Service) ArtistsByGenre(ctx context.Context, genre string) ([]GenreArtist, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ar.name, COUNT(*) AS track_count
		FROM genres g
		JOIN tracks t ON g.genre_id = t.genre_id
		JOIN albums al ON t.album_id = al.album_id
		JOIN artists ar ON al.artist_id = ar.artist_id
		WHERE g.name LIKE '%' || ? || '%'
		GROUP BY ar.name
		ORDER BY track_count DESC
		LIMIT 15`, genre)
	if err != nil {
		return nil, fmt.Errorf("artists by genre: %w", err)
	}
	defer rows.Close()

	var artists []GenreArtist
	for rows.Next() {
		var artist GenreArtist
		if err := rows.Scan(&artist.Name, &artist.TrackCount); err != nil {
			return nil, fmt.Errorf("scan genre artist: %w", err)
		}
		artists = append(artists, artist)
	}
	return artists, rows.Err()
}

// Genres returns all genre names in the catalog.
func (s *Service) Genres(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM genres ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	defer rows.Close()

	var genres []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		genres = append(genres, name)
	}
	return genres, rows.Err()
}

// CustomerInfo returns the profile for the given customer.
func (s *Service) CustomerInfo(ctx context.Context, customerID int64) (*Customer, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT customer_id, first_name, last_name, email, phone, address, city, country
		FROM customers
		WHERE customer_id = ?`, customerID)
	var customer Customer
	err := row.Scan(&customer.ID, &customer.FirstName, &customer.LastName,
		&customer.Email, &customer.Phone, &customer.Address, &customer.City, &customer.Country)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("customer info: %w", err)
	}
	return &customer, nil
}

// Invoice returns one invoice, which must belong to the given customer.
func (s *Service) Invoice(ctx context.Context, customerID, invoiceID int64) (*Invoice, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT invoice_id, invoice_date, billing_city, billing_country, total
		FROM invoices
		WHERE customer_id = ? AND invoice_id = ?`, customerID, invoiceID)
	var invoice Invoice
	err := row.Scan(&invoice.ID, &invoice.Date, &invoice.BillingCity,
		&invoice.BillingCountry, &invoice.Total)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("invoice: %w", err)
	}
	return &invoice, nil
}

// Invoices returns the customer's most recent invoices, newest first.
func (s *Service) Invoices(ctx context.Context, customerID int64) ([]Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT invoice_id, invoice_date, billing_city, billing_country, total
		FROM invoices
		WHERE customer_id = ?
		ORDER BY invoice_date DESC
		LIMIT 10`, customerID)
	if err != nil {
		return nil, fmt.Errorf("invoices: %w", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var invoice Invoice
		if err := rows.Scan(&invoice.ID, &invoice.Date, &invoice.BillingCity,
			&invoice.BillingCountry, &invoice.Total); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

// RefundInvoice verifies the invoice belongs to the customer and returns it
// for refund processing. The demo store does not mutate payment state; the
// verified invoice is what the approval gate ultimately confirms.
func (s *Service) RefundInvoice(ctx context.Context, customerID, invoiceID int64) (*Invoice, error) {
	return s.Invoice(ctx, customerID, invoiceID)
}
