//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

package assistant

import (
	"context"

	"github.com/scarolan/music-store-assistant/catalog"
	"github.com/scarolan/music-store-assistant/security"
	"github.com/scarolan/music-store-assistant/tool"
	"github.com/scarolan/music-store-assistant/tool/function"
)

// gatedToolNames classifies tools that must not execute without an operator
// decision. Everything else executes automatically.
var gatedToolNames = map[string]bool{
	"process_refund": true,
}

type artistQuery struct {
	Artist string `json:"artist" description:"Artist name, or a fragment of it."`
}

type titleQuery struct {
	Title string `json:"title" description:"Track title, or a fragment of it."`
}

type genreQuery struct {
	Genre string `json:"genre" description:"Genre name, or a fragment of it."`
}

type invoiceQuery struct {
	InvoiceID int64 `json:"invoice_id" description:"Numeric invoice ID."`
}

type noArgs struct{}

// musicTools builds the catalog worker's tool set. All of these are
// read-only catalog lookups with no identity sensitivity.
func musicTools(cat *catalog.Service) tool.Set {
	return tool.NewSet(
		function.New(
			func(ctx context.Context, _ security.Context, in artistQuery) ([]catalog.Album, error) {
				return cat.AlbumsByArtist(ctx, in.Artist)
			},
			function.WithName("get_albums_by_artist"),
			function.WithDescription("Get all albums by an artist or band."),
		),
		function.New(
			func(ctx context.Context, _ security.Context, in artistQuery) ([]catalog.Track, error) {
				return cat.TracksByArtist(ctx, in.Artist)
			},
			function.WithName("get_tracks_by_artist"),
			function.WithDescription("Get all songs by an artist or band."),
		),
		function.New(
			func(ctx context.Context, _ security.Context, in titleQuery) ([]catalog.TrackMatch, error) {
				return cat.SearchTracks(ctx, in.Title)
			},
			function.WithName("check_for_songs"),
			function.WithDescription("Find songs whose title matches a phrase."),
		),
		function.New(
			func(ctx context.Context, _ security.Context, in genreQuery) ([]catalog.GenreArtist, error) {
				return cat.ArtistsByGenre(ctx, in.Genre)
			},
			function.WithName("get_artists_by_genre"),
			function.WithDescription("Get the top artists in a genre."),
		),
		function.New(
			func(ctx context.Context, _ security.Context, _ noArgs) ([]string, error) {
				return cat.Genres(ctx)
			},
			function.WithName("list_genres"),
			function.WithDescription("List every genre in the store catalog."),
		),
	)
}

// supportTools builds the account worker's tool set. Every query is scoped to
// the customer ID from the security context; the model never supplies or sees
// that ID.
func supportTools(cat *catalog.Service) tool.Set {
	return tool.NewSet(
		function.New(
			func(ctx context.Context, sec security.Context, _ noArgs) (*catalog.Customer, error) {
				return cat.CustomerInfo(ctx, sec.CustomerID)
			},
			function.WithName("get_customer_info"),
			function.WithDescription("Look up the current customer's account profile."),
		),
		function.New(
			func(ctx context.Context, sec security.Context, in invoiceQuery) (*catalog.Invoice, error) {
				return cat.Invoice(ctx, sec.CustomerID, in.InvoiceID)
			},
			function.WithName("get_invoice"),
			function.WithDescription("Look up one of the current customer's invoices by ID."),
		),
		function.New(
			func(ctx context.Context, sec security.Context, _ noArgs) ([]catalog.Invoice, error) {
				return cat.Invoices(ctx, sec.CustomerID)
			},
			function.WithName("list_invoices"),
			function.WithDescription("List the current customer's recent invoices."),
		),
		function.New(
			func(ctx context.Context, sec security.Context, in invoiceQuery) (*catalog.Invoice, error) {
				return cat.RefundInvoice(ctx, sec.CustomerID, in.InvoiceID)
			},
			function.WithName("process_refund"),
			function.WithDescription("Refund one of the current customer's invoices. Requires operator approval."),
		),
	)
}
