//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

package tool

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleInput struct {
	Artist   string   `json:"artist" description:"Artist name."`
	Limit    *int     `json:"limit,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Internal string   `json:"-"`
	hidden   bool
}

func TestGenerateJSONSchema(t *testing.T) {
	schema := GenerateJSONSchema(reflect.TypeOf(sampleInput{}))
	require.NotNil(t, schema)
	assert.Equal(t, "object", schema.Type)

	require.Contains(t, schema.Properties, "artist")
	assert.Equal(t, "string", schema.Properties["artist"].Type)
	assert.Equal(t, "Artist name.", schema.Properties["artist"].Description)

	require.Contains(t, schema.Properties, "limit")
	assert.Equal(t, "integer", schema.Properties["limit"].Type)

	require.Contains(t, schema.Properties, "tags")
	assert.Equal(t, "array", schema.Properties["tags"].Type)
	assert.Equal(t, "string", schema.Properties["tags"].Items.Type)

	assert.NotContains(t, schema.Properties, "Internal")
	assert.NotContains(t, schema.Properties, "hidden")

	// Pointer and omitempty fields are optional.
	assert.Equal(t, []string{"artist"}, schema.Required)
}

func TestGenerateFieldSchemaScalars(t *testing.T) {
	assert.Equal(t, "string", GenerateFieldSchema(reflect.TypeOf("")).Type)
	assert.Equal(t, "integer", GenerateFieldSchema(reflect.TypeOf(int64(0))).Type)
	assert.Equal(t, "number", GenerateFieldSchema(reflect.TypeOf(0.0)).Type)
	assert.Equal(t, "boolean", GenerateFieldSchema(reflect.TypeOf(false)).Type)
}
