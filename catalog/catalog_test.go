//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

package catalog

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "github.com/tursodatabase/go-libsql"
)

func testService(t *testing.T) *Service {
	t.Helper()
	db, err := sql.Open("libsql", "file:"+filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db))
	return NewService(db)
}

func TestAlbumsByArtist(t *testing.T) {
	service := testService(t)

	albums, err := service.AlbumsByArtist(context.Background(), "AC/DC")
	require.NoError(t, err)
	require.Len(t, albums, 2)
	assert.Equal(t, "Back in Black", albums[0].Title)
	assert.Equal(t, "AC/DC", albums[0].Artist)

	// Fragment matching.
	albums, err = service.AlbumsByArtist(context.Background(), "Zeppelin")
	require.NoError(t, err)
	assert.Len(t, albums, 2)
}

func TestTracksByArtist(t *testing.T) {
	service := testService(t)

	tracks, err := service.TracksByArtist(context.Background(), "Miles Davis")
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "Blue in Green", tracks[0].Name)
}

func TestSearchTracks(t *testing.T) {
	service := testService(t)

	matches, err := service.SearchTracks(context.Background(), "Black")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, match := range matches {
		assert.NotEmpty(t, match.Album)
		assert.Positive(t, match.DurationSeconds)
	}
}

func TestArtistsByGenre(t *testing.T) {
	service := testService(t)

	artists, err := service.ArtistsByGenre(context.Background(), "Rock")
	require.NoError(t, err)
	require.NotEmpty(t, artists)
	assert.Equal(t, "AC/DC", artists[0].Name)
	assert.EqualValues(t, 4, artists[0].TrackCount)
}

func TestGenres(t *testing.T) {
	service := testService(t)

	genres, err := service.Genres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Blues", "Jazz", "Metal", "Rock"}, genres)
}

func TestCustomerInfo(t *testing.T) {
	service := testService(t)

	customer, err := service.CustomerInfo(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Ada", customer.FirstName)
	assert.Equal(t, "Lovelace", customer.LastName)

	_, err = service.CustomerInfo(context.Background(), 999)
	require.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestInvoiceScopedToCustomer(t *testing.T) {
	service := testService(t)
	ctx := context.Background()

	invoice, err := service.Invoice(ctx, 1, 98)
	require.NoError(t, err)
	assert.InDelta(t, 9.98, invoice.Total, 0.001)

	// Another customer's invoice is indistinguishable from a missing one.
	_, err = service.Invoice(ctx, 2, 98)
	require.ErrorIs(t, err, ErrInvoiceNotFound)
	_, err = service.Invoice(ctx, 1, 12345)
	require.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestInvoicesNewestFirst(t *testing.T) {
	service := testService(t)

	invoices, err := service.Invoices(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.EqualValues(t, 99, invoices[0].ID)
	assert.EqualValues(t, 98, invoices[1].ID)
}

func TestRefundInvoiceVerifiesOwnership(t *testing.T) {
	service := testService(t)
	ctx := context.Background()

	invoice, err := service.RefundInvoice(ctx, 1, 98)
	require.NoError(t, err)
	assert.EqualValues(t, 98, invoice.ID)

	_, err = service.RefundInvoice(ctx, 3, 98)
	require.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := sql.Open("libsql", "file:"+filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))
}
